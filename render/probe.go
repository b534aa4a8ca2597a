package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// DefaultContextCeiling is the hard upper bound on pool capacity applied
// regardless of what the environment hints. Override via config
// acceleration.max_contexts.
const DefaultContextCeiling = 8

// vendorContextHints maps PCI vendor ids to how many concurrent accelerated
// contexts that driver family is believed to handle safely.
var vendorContextHints = map[string]int{
	"0x10de": 16, // nvidia
	"0x1002": 12, // amd
	"0x8086": 8,  // intel
}

// unknownVendorHint is used when no GPU vendor can be detected.
const unknownVendorHint = 4

// vendorDenylist lists vendors whose drivers are known to mishandle context
// loss.
var vendorDenylist = map[string]string{
	"0x15ad": "vmware virtual gpu",
	"0x1414": "microsoft basic render driver",
	"0x1013": "cirrus logic",
}

// Capabilities is the prober's verdict, computed once per process at pool
// construction and immutable afterwards.
type Capabilities struct {
	// Supported is false when the accelerated path cannot be used at all.
	Supported bool `json:"supported"`
	// MaxContexts is the pool capacity, clamped to the context ceiling.
	// Always >= 1 when Supported.
	MaxContexts int `json:"max_contexts"`
	// Vendor is the detected GPU vendor id ("" when undetected).
	Vendor string `json:"vendor,omitempty"`
	// Reason explains an unsupported verdict for diagnostics.
	Reason string `json:"reason,omitempty"`
}

// ProbeOptions injects the environment for testing. The zero value probes
// the real process environment.
type ProbeOptions struct {
	// Disabled forces an unsupported verdict (config/flag kill switch).
	Disabled bool
	// ContextCeiling overrides DefaultContextCeiling when > 0.
	ContextCeiling int
	// ExtraDenylist adds vendor ids to the built-in denylist.
	ExtraDenylist []string
	// Env overrides os.Getenv.
	Env func(string) string
	// DRMRoot overrides /sys/class/drm for vendor detection.
	DRMRoot string
	// Interactive overrides the stdout-is-a-terminal check.
	Interactive *bool
	// Profile overrides the detected terminal color profile.
	Profile *termenv.Profile
}

// Probe determines whether the accelerated rendering path is usable and how
// many concurrent contexts are safe. Pure function of the runtime
// environment: no side effects, safe to call speculatively, but the pool
// calls it exactly once at construction and caches the result.
func Probe(opts ProbeOptions) Capabilities {
	getenv := opts.Env
	if getenv == nil {
		getenv = os.Getenv
	}

	if opts.Disabled || getenv("TERMDECK_NO_ACCEL") != "" {
		return Capabilities{Reason: "acceleration disabled"}
	}

	if !HasBackend() {
		return Capabilities{Reason: "no accelerated backend registered"}
	}

	interactive := opts.Interactive != nil && *opts.Interactive
	if opts.Interactive == nil {
		interactive = term.IsTerminal(int(os.Stdout.Fd()))
	}
	if !interactive {
		return Capabilities{Reason: "stdout is not a terminal"}
	}

	profile := termenv.EnvColorProfile()
	if opts.Profile != nil {
		profile = *opts.Profile
	}
	if profile == termenv.Ascii {
		return Capabilities{Reason: "monochrome terminal"}
	}

	vendor := detectGPUVendor(opts.DRMRoot)
	if reason, denied := deniedVendor(vendor, opts.ExtraDenylist); denied {
		return Capabilities{Vendor: vendor, Reason: reason}
	}

	hint, ok := vendorContextHints[vendor]
	if !ok {
		hint = unknownVendorHint
	}

	ceiling := opts.ContextCeiling
	if ceiling <= 0 {
		ceiling = DefaultContextCeiling
	}
	if hint > ceiling {
		hint = ceiling
	}
	if hint < 1 {
		hint = 1
	}

	return Capabilities{Supported: true, MaxContexts: hint, Vendor: vendor}
}

// detectGPUVendor reads the PCI vendor id of the first DRM card. Returns ""
// when nothing can be detected (non-linux, no GPU, sandboxed).
func detectGPUVendor(root string) string {
	if root == "" {
		root = "/sys/class/drm"
	}
	matches, err := filepath.Glob(filepath.Join(root, "card*", "device", "vendor"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(string(data)))
}

func deniedVendor(vendor string, extra []string) (string, bool) {
	if vendor == "" {
		return "", false
	}
	if name, ok := vendorDenylist[vendor]; ok {
		return fmt.Sprintf("denylisted gpu vendor: %s", name), true
	}
	for _, v := range extra {
		if strings.EqualFold(strings.TrimSpace(v), vendor) {
			return fmt.Sprintf("denylisted gpu vendor: %s", vendor), true
		}
	}
	return "", false
}
