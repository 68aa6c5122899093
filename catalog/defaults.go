package catalog

import "github.com/BaSui01/genflow/types"

// Default returns the built-in model table. Deployments normally override
// it with a YAML catalog, but the built-ins keep the engine usable out of
// the box and pin the pricing rules the estimator tests exercise.
func Default() *Catalog {
	c, err := New(defaultSpecs())
	if err != nil {
		// built-in table is validated by tests
		panic(err)
	}
	return c
}

func defaultSpecs() []ModelSpec {
	return []ModelSpec{
		{
			ID:       "veo-3",
			Name:     "Google Veo 3",
			Provider: "fal",
			Category: types.CategoryText,
			Endpoints: map[Capability]string{
				CapTextToVideo: "fal-ai/veo3",
			},
			RequiredInputs: []InputKind{InputPrompt},
			Defaults:       map[string]any{"duration": 8, "resolution": "720p", "fps": 24},
			Pricing: PricingSpec{
				Rule: PricePerSecond,
				RatePerSecond: map[string]float64{
					"720p":  0.40,
					"1080p": 0.75,
					"":      0.40,
				},
			},
		},
		{
			ID:       "sora-2",
			Name:     "OpenAI Sora 2",
			Provider: "fal",
			Category: types.CategoryText,
			Endpoints: map[Capability]string{
				CapTextToVideo: "fal-ai/sora2/text-to-video",
			},
			RequiredInputs: []InputKind{InputPrompt},
			Defaults:       map[string]any{"duration": 5, "width": 1280, "height": 720, "fps": 30},
			Pricing: PricingSpec{
				Rule:                  PriceTokenBased,
				PricePerMillionTokens: 1.00,
			},
		},
		{
			ID:       "kling-2.1",
			Name:     "Kling 2.1",
			Provider: "fal",
			Category: types.CategoryImage,
			Endpoints: map[Capability]string{
				CapImageToVideo: "fal-ai/kling-video/v2.1/image-to-video",
			},
			RequiredInputs:      []InputKind{InputSourceImage},
			RequiresHostedInput: true,
			Defaults:            map[string]any{"duration": 5},
			Pricing: PricingSpec{
				Rule: PriceTiered,
				Tiers: []Tier{
					{MaxDuration: 5, Price: 0.35},
					{MaxDuration: 10, Price: 0.70},
				},
			},
		},
		{
			ID:       "pixverse-transition",
			Name:     "PixVerse Transition",
			Provider: "fal",
			Category: types.CategoryImage,
			Endpoints: map[Capability]string{
				CapFramePairToVideo: "fal-ai/pixverse/v4/transition",
			},
			RequiredInputs:      []InputKind{InputFramePair},
			RequiresHostedInput: true,
			Defaults:            map[string]any{"duration": 5},
			Pricing: PricingSpec{
				Rule: PriceTiered,
				Tiers: []Tier{
					{MaxDuration: 5, Price: 0.45},
					{MaxDuration: 8, Price: 0.80},
				},
			},
		},
		{
			ID:       "omnihuman",
			Name:     "OmniHuman Avatar",
			Provider: "fal",
			Category: types.CategoryAvatar,
			Endpoints: map[Capability]string{
				CapAvatar: "fal-ai/omnihuman",
			},
			RequiredInputs:      []InputKind{InputCharacterImage, InputAudio},
			RequiresHostedInput: true,
			Defaults:            map[string]any{"resolution": "720p"},
			Pricing: PricingSpec{
				Rule: PricePerSecond,
				RatePerSecond: map[string]float64{
					"": 0.16,
				},
			},
		},
		{
			ID:       "act-two",
			Name:     "Runway Act-Two",
			Provider: "runway",
			Category: types.CategoryAvatar,
			Endpoints: map[Capability]string{
				CapAvatar: "v1/character_performance",
			},
			RequiredInputs: []InputKind{InputCharacterImage, InputSourceVideo},
			Defaults:       map[string]any{"ratio": "1280:720"},
			Pricing: PricingSpec{
				Rule: PricePerSecond,
				RatePerSecond: map[string]float64{
					"": 0.05,
				},
			},
		},
		{
			ID:       "topaz-upscale",
			Name:     "Topaz Video Upscale",
			Provider: "fal",
			Category: types.CategoryUpscale,
			Endpoints: map[Capability]string{
				CapUpscale: "fal-ai/topaz/upscale/video",
			},
			RequiredInputs: []InputKind{InputSourceVideo},
			Defaults:       map[string]any{"upscale_factor": 2},
			Pricing: PricingSpec{
				Rule:              PriceMegapixel,
				PricePerMegapixel: 0.0003,
			},
		},
		{
			ID:       "seedvr-upscale",
			Name:     "SeedVR Upscale",
			Provider: "fal",
			Category: types.CategoryUpscale,
			Endpoints: map[Capability]string{
				CapUpscale: "fal-ai/seedvr/upscale/video",
			},
			RequiredInputs: []InputKind{InputSourceVideo},
			Defaults:       map[string]any{"upscale_factor": 2},
			Pricing: PricingSpec{
				Rule: PriceFactorTable,
				FactorPrices: map[int]float64{
					2: 0.60,
					3: 1.20,
					4: 2.00,
					6: 4.20,
					8: 7.20,
				},
			},
		},
	}
}
