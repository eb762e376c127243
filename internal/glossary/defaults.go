package glossary

// Default returns the built-in Safi-approach glossary for Divan-e Kabir
// translation. Used when no glossary file is configured.
func Default() *Glossary {
	g, err := New([]Entry{
		{Term: "عشق", Transliteration: "ishq", Rendering: "Love", Gloss: "divine, cosmic love — capital L, not mere romance"},
		{Term: "معشوق", Transliteration: "ma'shuq", Rendering: "the Beloved", Gloss: "capital B; deliberately ambiguous between God, Shams, and earthly love"},
		{Term: "یار", Transliteration: "yar", Rendering: "the Friend", Gloss: "divine friend; context may license \"the Beloved\" instead"},
		{Term: "دوست", Transliteration: "dust", Rendering: "the Friend", Gloss: "divine friend"},
		{Term: "جان", Transliteration: "jan", Rendering: "soul", Gloss: "soul or spirit, not merely \"life\""},
		{Term: "دل", Transliteration: "del", Rendering: "heart", Gloss: "seat of spiritual perception"},
		{Term: "می", Transliteration: "mey", Rendering: "wine", Gloss: "mystical intoxication, not literal drink"},
		{Term: "مست", Transliteration: "mast", Rendering: "intoxicated", Gloss: "spiritually drunk with divine presence"},
		{Term: "فنا", Transliteration: "fana", Rendering: "annihilation", Gloss: "annihilation of ego in the divine"},
		{Term: "بقا", Transliteration: "baqa", Rendering: "subsistence", Gloss: "remaining in God after fana"},
		{Term: "سماع", Transliteration: "sama'", Rendering: "spiritual audition", Gloss: "mystical listening and whirling"},
		{Term: "کعبه", Transliteration: "ka'ba", Rendering: "Kaaba", Gloss: "keep as Kaaba, never \"sacred house\""},
		{Term: "حج", Transliteration: "hajj", Rendering: "Hajj", Gloss: "keep as Hajj, never generic \"pilgrimage\""},
		{Term: "نی", Transliteration: "ney", Rendering: "reed-flute", Gloss: "the soul separated from its divine origin"},
		{Term: "شمس", Transliteration: "shams", Rendering: "Shams", Gloss: "proper noun; also \"sun\" — wordplay is frequent"},
		{Term: "خانقاه", Transliteration: "khanaqah", Rendering: "Sufi lodge", Gloss: "dervish lodge"},
	})
	if err != nil {
		// The built-in table is static; a failure here is a programming error.
		panic(err)
	}
	return g
}

// DefaultToneGuide returns the built-in voice guide for the Stylist pass.
func DefaultToneGuide() *ToneGuide {
	return &ToneGuide{
		Principles: []string{
			"Direct address: intimate \"you\" and \"I\" speaking to the Beloved, the reader, or God",
			"Ecstatic urgency: short exclamations, imperatives, repetition",
			"Paradox held open, never resolved or explained",
			"Embodied imagery: heart, blood, fire, water, wine, breath",
			"Contemporary English, never Victorian or archaic",
			"Intensity: do not soften, hedge, or make Rumi polite",
			"Preserve every Islamic reference: Hajj, Kaaba, prayer postures, Quranic allusions",
		},
		AntiPatterns: []string{
			"one might observe",
			"it could be argued",
			"arguably",
			"in a sense",
			"the universe wants",
			"your authentic self",
			"journey of self-discovery",
			"return to the present moment",
			"whither",
			"thou art",
		},
	}
}
