package patterns

// =============================================================================
// BUILT-IN PATTERN TABLES BY LANGUAGE
// All patterns are registered here and compiled once at load.
//
// Confidence values are calibrated by phrase specificity: a first-person
// statement of intent scores far higher than the bare presence of a crisis
// word. Urgency estimates how immediate the danger is (0-100), independent
// of the severity bucket.
// =============================================================================

// --- ENGLISH ---
func (r *Registry) registerEnglishPatterns() {
	const lang = "en"

	// Direct statements of suicidal intent. First-person + intent verb is the
	// most specific phrasing we match and carries the highest confidence.
	r.register("en_suicide_intent", lang,
		`(?i)\b(?:i\s*(?:'m|am)?\s*(?:going to|gonna)|i\s*will|i\s*(?:want|plan)\s*to)\s+(?:kill myself|end my (?:own )?life|end it all|take my own life)\b`,
		CategorySuicidePlan, "emergency", 0.95, 92,
		"kill myself", "end my life", "end it all", "take my own life")

	r.register("en_suicide_statement", lang,
		`(?i)\b(?:kill(?:ing)? myself|commit(?:ting)? suicide|take my own life|end(?:ing)? my (?:own )?life)\b`,
		CategorySuicidalIdeation, "emergency", 0.92, 85,
		"kill myself", "killing myself", "suicide", "my own life", "my life")

	r.register("en_suicide_note", lang,
		`(?i)\b(?:wrote|writing|finished)\s+(?:a\s+|my\s+)?(?:suicide|goodbye|final)\s+(?:note|letter)\b`,
		CategorySuicidePlan, "emergency", 0.90, 95,
		"suicide", "goodbye", "final letter", "final note")

	r.register("en_method_seeking", lang,
		`(?i)\b(?:ways?|how)\s+to\s+(?:kill myself|die (?:painlessly|quickly)|end my life)\b`,
		CategorySuicidePlan, "emergency", 0.90, 90,
		"kill myself", "end my life", "die")

	// Passive ideation: wanting to be dead without stated intent.
	r.register("en_passive_ideation", lang,
		`(?i)\b(?:want(?:ed)?\s+to\s+die|wish\s+i\s+(?:was|were)\s+dead|better\s+off\s+dead|don'?t\s+want\s+to\s+(?:live|be\s+alive|wake\s+up)(?:\s+anymore)?)\b`,
		CategorySuicidalIdeation, "high", 0.85, 65,
		"to die", "dead", "want to live", "be alive", "wake up")

	r.register("en_self_harm", lang,
		`(?i)\b(?:cut(?:ting)?\s+myself|hurt(?:ing)?\s+myself|harm(?:ing)?\s+myself|burn(?:ing)?\s+myself|self[- ]harm(?:ing)?)\b`,
		CategorySelfHarm, "high", 0.88, 70,
		"myself", "self-harm", "self harm")

	// Danger to others.
	r.register("en_violence_intent", lang,
		`(?i)\b(?:want\s+to|going\s+to|gonna|about\s+to)\s+(?:hurt|kill|attack|shoot|stab)\s+(?:someone|somebody|him|her|them|people|everyone)\b`,
		CategoryViolence, "high", 0.85, 72,
		"hurt", "kill", "attack", "shoot", "stab")

	r.register("en_violence_threat", lang,
		`(?i)\b(?:make\s+(?:him|her|them)\s+pay|they(?:'ll|\s+will)\s+(?:all\s+)?regret|bring(?:ing)?\s+a\s+(?:gun|knife|weapon))\b`,
		CategoryViolence, "high", 0.80, 75,
		"pay", "regret", "gun", "knife", "weapon")

	// Overdose language is a medical emergency regardless of stated intent.
	r.register("en_overdose", lang,
		`(?i)\b(?:took|swallowed|taking)\s+(?:too\s+many|a\s+(?:bunch|handful|bottle)\s+of|all\s+(?:the|my))\s+(?:pills|sleeping\s+pills|painkillers|medication)\b|\boverdos(?:e|ed|ing)\b`,
		CategoryMedicalEmergency, "emergency", 0.93, 97,
		"pills", "painkillers", "medication", "overdos")

	// Time anchors near crisis vocabulary mark temporal urgency; low severity
	// on their own, but they raise the urgency of whatever else matched.
	r.register("en_temporal", lang,
		`(?i)\b(?:tonight|right\s+now|in\s+a\s+few\s+(?:minutes|hours)|before\s+(?:morning|sunrise)|can'?t\s+(?:hold\s+on|go\s+on)\s+(?:any\s*longer|anymore))\b`,
		CategoryTemporalUrgency, "low", 0.60, 85,
		"tonight", "right now", "hold on", "go on", "before morning", "minutes", "hours")

	r.register("en_hopelessness", lang,
		`(?i)\b(?:no\s+reason\s+to\s+(?:live|go\s+on)|nothing\s+(?:matters|left)\b|no\s+way\s+out|can'?t\s+take\s+(?:it|this)\s+anymore|everyone\s+would\s+be\s+better\s+(?:off\s+)?without\s+me|i'?m\s+(?:such\s+)?a\s+burden)\b`,
		CategoryHopelessness, "moderate", 0.70, 45,
		"no reason", "nothing matters", "nothing left", "no way out", "anymore", "without me", "a burden")

	// Protective factors reduce risk; they never zero out an explicit threat.
	r.register("en_protective", lang,
		`(?i)\b(?:my\s+(?:therapist|counsel(?:l)?or|psychiatrist)|i'?m\s+(?:getting|in)\s+(?:help|therapy|treatment)|i\s+(?:would|could)\s+never\s+(?:actually\s+|really\s+)?(?:do\s+it|act\s+on\s+it|go\s+through\s+with\s+it)|call(?:ed)?\s+(?:the\s+)?(?:hotline|crisis\s+line|988))\b`,
		CategoryProtective, "none", 0.75, 0,
		"therapist", "counselor", "counsellor", "psychiatrist", "therapy", "treatment", "never", "hotline", "crisis line", "988")
}

// --- SPANISH ---
func (r *Registry) registerSpanishPatterns() {
	const lang = "es"

	r.register("es_suicide_intent", lang,
		`(?i)\b(?:me\s+(?:voy\s+a|quiero)\s+(?:matar|suicidar)|quitarme\s+la\s+vida|acabar\s+con\s+mi\s+vida|ya\s+no\s+quiero\s+vivir)\b`,
		CategorySuicidePlan, "emergency", 0.93, 90,
		"matar", "suicidar", "quitarme la vida", "mi vida", "vivir")

	r.register("es_passive_ideation", lang,
		`(?i)\b(?:quiero\s+morir(?:me)?|me\s+quiero\s+morir|ojal[aá]\s+estuviera\s+muert[oa])\b`,
		CategorySuicidalIdeation, "high", 0.85, 65,
		"morir", "muert")

	r.register("es_self_harm", lang,
		`(?i)\b(?:hacerme\s+da[ñn]o|cortarme|lastimarme|quemarme)\b`,
		CategorySelfHarm, "high", 0.85, 68,
		"hacerme", "cortarme", "lastimarme", "quemarme")

	r.register("es_violence_intent", lang,
		`(?i)\b(?:quiero|voy\s+a)\s+(?:matar|lastimar|herir)\s+a\b`,
		CategoryViolence, "high", 0.85, 72,
		"matar", "lastimar", "herir")

	r.register("es_hopelessness", lang,
		`(?i)\b(?:no\s+puedo\s+m[aá]s|no\s+hay\s+salida|nada\s+importa\s+ya|soy\s+una\s+carga)\b`,
		CategoryHopelessness, "moderate", 0.70, 45,
		"no puedo", "salida", "nada importa", "una carga")

	r.register("es_protective", lang,
		`(?i)\b(?:mi\s+(?:terapeuta|psic[oó]log[oa]|psiquiatra)|estoy\s+en\s+(?:terapia|tratamiento)|nunca\s+lo\s+har[ií]a)\b`,
		CategoryProtective, "none", 0.75, 0,
		"terapeuta", "psicolog", "psiquiatra", "terapia", "tratamiento", "nunca")
}

// --- UNIVERSAL ---
// The generic table applied to every language, including unsupported ones.
// Deliberately low confidence: bare crisis vocabulary without sentence
// structure we can verify. This is the reduced-confidence fallback model.
func (r *Registry) registerUniversalPatterns() {
	const lang = "*"

	r.register("any_suicide_word", lang,
		`(?i)\bsuicid(?:e|al|io|arme)\b`,
		CategorySuicidalIdeation, "moderate", 0.60, 50,
		"suicid")
}
