package entity

// Flag fields are tri-state: nil means the owning check never reached a
// conclusion, so the key is left out of the serialized flag-set.
// Each stage returns exactly one of the sub-structs below, which keeps key
// ownership disjoint across stages.

// TechFlags is owned by the technology fingerprinter.
type TechFlags struct {
	TechError    *bool `json:"techError,omitempty"`
	TechObsolete *bool `json:"techObsolete,omitempty"`
}

// TLSFlags is owned by the TLS validator.
type TLSFlags struct {
	SSLIssue *bool `json:"sslIssue,omitempty"`
}

// HeaderFlags is owned by the security header auditor.
type HeaderFlags struct {
	HeadersMissing *bool `json:"headersMissing,omitempty"`
	MixedContent   *bool `json:"mixedContent,omitempty"`
}

// AuthFlags is owned by the domain authentication checker.
// AuthError and the two Missing* flags are mutually exclusive.
type AuthFlags struct {
	MissingSPF   *bool `json:"mxMissingSPF,omitempty"`
	MissingDMARC *bool `json:"mxMissingDMARC,omitempty"`
	AuthError    *bool `json:"mxError,omitempty"`
}

// RenderFlags is owned by the rendered-page auditor.
type RenderFlags struct {
	Favicon     *bool `json:"favicon,omitempty"`
	MetaSEO     *bool `json:"metaSEO,omitempty"`
	Responsive  *bool `json:"responsive,omitempty"`
	CTA         *bool `json:"cta,omitempty"`
	PolicyPage  *bool `json:"policyPage,omitempty"`
	FormsBroken *bool `json:"formsBroken,omitempty"`
}

// PerformanceFlags are weighted by the scorer but no stage produces them yet.
type PerformanceFlags struct {
	SlowLoad     *bool `json:"slowLoad,omitempty"`
	CDN          *bool `json:"cdn,omitempty"`
	TemplateLook *bool `json:"templateLook,omitempty"`
	MissingDKIM  *bool `json:"mxMissingDKIM,omitempty"`
}

// Checks is the per-site flag-set. The embedded structs flatten into a single
// JSON object.
type Checks struct {
	TechFlags
	TLSFlags
	HeaderFlags
	AuthFlags
	RenderFlags
	PerformanceFlags
}

// Flag returns a pointer to v, for filling flag fields.
func Flag(v bool) *bool {
	return &v
}

// IsTrue reports whether the flag is present and true.
func IsTrue(f *bool) bool {
	return f != nil && *f
}

// IsFalse reports whether the flag is present and false.
func IsFalse(f *bool) bool {
	return f != nil && !*f
}
