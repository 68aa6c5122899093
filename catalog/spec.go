package catalog

import (
	"github.com/BaSui01/genflow/types"
)

// Capability names a sub-capability of a generation model. A model may
// expose several (e.g. text-to-video and image-to-video) with distinct
// endpoints.
type Capability string

const (
	CapTextToVideo      Capability = "text_to_video"
	CapImageToVideo     Capability = "image_to_video"
	CapFramePairToVideo Capability = "frame_pair_to_video"
	CapAvatar           Capability = "avatar"
	CapUpscale          Capability = "upscale"
)

// InputKind names one input a model requires before dispatch.
type InputKind string

const (
	InputPrompt         InputKind = "prompt"
	InputSourceImage    InputKind = "source_image"
	InputFramePair      InputKind = "frame_pair"
	InputCharacterImage InputKind = "character_image"
	InputAudio          InputKind = "audio"
	InputSourceVideo    InputKind = "source_video"
)

// PricingRule tags the formula used to estimate a model's cost.
type PricingRule string

const (
	PricePerSecond   PricingRule = "per_second"
	PriceTokenBased  PricingRule = "token_based"
	PriceTiered      PricingRule = "tiered"
	PriceMegapixel   PricingRule = "megapixel"
	PriceFactorTable PricingRule = "factor_table"
)

// Tier is one duration bucket of a tiered pricing rule.
type Tier struct {
	MaxDuration float64 `yaml:"max_duration" json:"max_duration"` // seconds, inclusive
	Price       float64 `yaml:"price" json:"price"`               // dollars
}

// PricingSpec carries the parameters of a model's pricing rule. Only the
// fields relevant to the tagged rule are populated.
type PricingSpec struct {
	Rule PricingRule `yaml:"rule" json:"rule"`

	// per_second: dollars per second keyed by resolution label, with "" as
	// the fallback rate.
	RatePerSecond map[string]float64 `yaml:"rate_per_second,omitempty" json:"rate_per_second,omitempty"`

	// token_based
	PricePerMillionTokens float64 `yaml:"price_per_million_tokens,omitempty" json:"price_per_million_tokens,omitempty"`

	// tiered: buckets ordered by MaxDuration; past the last bucket the cost
	// extrapolates linearly at the last bucket's per-second rate.
	Tiers []Tier `yaml:"tiers,omitempty" json:"tiers,omitempty"`

	// megapixel
	PricePerMegapixel float64 `yaml:"price_per_megapixel,omitempty" json:"price_per_megapixel,omitempty"`

	// factor_table: dollars keyed by supported integer upscale factor.
	FactorPrices map[int]float64 `yaml:"factor_prices,omitempty" json:"factor_prices,omitempty"`
}

// ModelSpec describes one selectable generation model. Read-only at runtime.
type ModelSpec struct {
	ID       string         `yaml:"id" json:"id"`
	Name     string         `yaml:"name" json:"name"`
	Provider string         `yaml:"provider" json:"provider"`
	Category types.Category `yaml:"category" json:"category"`

	// Endpoints maps each sub-capability the model supports to the provider
	// endpoint path used for it.
	Endpoints map[Capability]string `yaml:"endpoints" json:"endpoints"`

	// RequiredInputs are checked per model at dispatch time; a missing input
	// skips this model only, never the batch.
	RequiredInputs []InputKind `yaml:"required_inputs,omitempty" json:"required_inputs,omitempty"`

	// RequiresHostedInput marks providers that accept input files only as
	// dereferenceable URLs, forcing an upload-for-reference step.
	RequiresHostedInput bool `yaml:"requires_hosted_input,omitempty" json:"requires_hosted_input,omitempty"`

	Defaults map[string]any `yaml:"defaults,omitempty" json:"defaults,omitempty"`
	Pricing  PricingSpec    `yaml:"pricing" json:"pricing"`
}

// Requires reports whether the model declares the given input kind.
func (s *ModelSpec) Requires(kind InputKind) bool {
	for _, k := range s.RequiredInputs {
		if k == kind {
			return true
		}
	}
	return false
}

// DualFrame reports whether the model consumes a first/last frame pair.
func (s *ModelSpec) DualFrame() bool {
	return s.Requires(InputFramePair)
}

// EndpointFor returns the endpoint path for a capability, or "" when the
// model does not support it.
func (s *ModelSpec) EndpointFor(c Capability) string {
	return s.Endpoints[c]
}
