package sentiment

// Feature names. The set is closed; extending it is a data change here, not a
// runtime operation.
const (
	FeatureCamera      = "camera"
	FeatureBattery     = "battery"
	FeatureScreen      = "screen"
	FeaturePerformance = "performance"
	FeatureDesign      = "design"
	FeatureSound       = "sound"
)

// featureOrder fixes the reporting order of features
var featureOrder = []string{
	FeatureCamera,
	FeatureBattery,
	FeatureScreen,
	FeaturePerformance,
	FeatureDesign,
	FeatureSound,
}

// featureKeywords maps each feature to English and Polish keywords matched as
// case-insensitive substrings of a sentence.
var featureKeywords = map[string][]string{
	FeatureCamera: {
		"camera", "photo", "picture", "lens", "megapixel", "zoom", "selfie",
		"video", "recording", "aparat", "zdjęcie", "zdjęcia", "obiektyw",
		"nagrywanie", "nagrania",
	},
	FeatureBattery: {
		"battery", "charge", "charging", "power", "autonomy", "mah", "life",
		"bateria", "ładowanie", "zasilanie", "żywotność", "czas pracy", "drain",
	},
	FeatureScreen: {
		"screen", "display", "brightness", "resolution", "oled", "lcd", "panel",
		"ekran", "wyświetlacz", "jasność", "dotyk", "touch",
	},
	FeaturePerformance: {
		"performance", "speed", "fast", "slow", "lag", "processor", "ram",
		"cpu", "gpu", "chip", "wydajność", "szybkość", "procesor", "opóźnienie",
		"płynność", "responsive", "smooth",
	},
	FeatureDesign: {
		"design", "look", "appearance", "build", "quality", "material",
		"aesthetic", "wygląd", "jakość wykonania", "materiał", "estetyka",
		"kształt", "feeling", "feel",
	},
	FeatureSound: {
		"sound", "audio", "speaker", "volume", "music", "headphone", "mic",
		"dźwięk", "głośnik", "głośniki", "muzyka", "mikrofon", "słuchawki",
	},
}

var positiveWeights = map[string]float64{
	"excellent": 0.9, "amazing": 0.9, "great": 0.8, "good": 0.7, "nice": 0.6,
	"love": 0.8, "perfect": 0.9, "fantastic": 0.9, "awesome": 0.8,
	"wonderful": 0.8, "impressive": 0.8, "outstanding": 0.9, "superb": 0.9,
	"best": 0.9, "beautiful": 0.7, "solid": 0.6, "smooth": 0.7, "fast": 0.7,
	"bright": 0.6, "clear": 0.6, "sharp": 0.7, "long-lasting": 0.8,
	"efficient": 0.7, "top-notch": 0.9, "flawless": 0.9, "decent": 0.5,
	"reliable": 0.7, "stunning": 0.8, "vibrant": 0.7, "quick": 0.7,
	"premium": 0.6, "brilliant": 0.8, "crisp": 0.7, "vivid": 0.7,

	"doskonały": 0.9, "fantastyczny": 0.9, "świetny": 0.8, "dobry": 0.7,
	"ładny": 0.6, "rewelacyjny": 0.9, "znakomity": 0.9, "wspaniały": 0.8,
	"imponujący": 0.8, "piękny": 0.7, "szybki": 0.7, "jasny": 0.6,
	"ostry": 0.7, "wydajny": 0.7, "idealny": 0.9, "genialny": 0.9,
	"super": 0.7, "fajny": 0.6, "elegancki": 0.7, "solidny": 0.6,
}

var negativeWeights = map[string]float64{
	"terrible": -0.9, "awful": -0.9, "bad": -0.7, "poor": -0.7, "horrible": -0.9,
	"hate": -0.8, "worst": -0.9, "disappointing": -0.8, "useless": -0.9,
	"slow": -0.7, "lag": -0.7, "dim": -0.6, "dark": -0.6, "short": -0.6,
	"weak": -0.7, "mediocre": -0.5, "issue": -0.6, "problem": -0.7,
	"fails": -0.8, "broken": -0.9, "unreliable": -0.7, "fuzzy": -0.6,
	"blurry": -0.7, "drain": -0.8, "glitch": -0.6, "expensive": -0.5,
	"overheat": -0.7, "buggy": -0.6, "clunky": -0.5,

	"okropny": -0.9, "straszny": -0.9, "zły": -0.7, "kiepski": -0.7,
	"fatalny": -0.9, "rozczarowujący": -0.8, "słaby": -0.7, "wolny": -0.7,
	"ciemny": -0.6, "krótki": -0.6, "wadliwy": -0.8,
	"nieudany": -0.8, "marny": -0.7, "beznadziejny": -0.9,
	"niedostateczny": -0.7, "drogi": -0.5, "grzeje": -0.7,
}

var negationWords = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "don't": {}, "doesn't": {}, "didn't": {},
	"won't": {}, "cannot": {}, "nie": {}, "nigdy": {}, "żaden": {}, "bez": {},
}

// Features returns the fixed feature names in reporting order
func Features() []string {
	out := make([]string, len(featureOrder))
	copy(out, featureOrder)
	return out
}

// IsFeature reports whether name belongs to the lexicon
func IsFeature(name string) bool {
	_, ok := featureKeywords[name]
	return ok
}

// weight looks a token up in both tables
func weight(token string) (float64, bool) {
	if w, ok := positiveWeights[token]; ok {
		return w, true
	}
	if w, ok := negativeWeights[token]; ok {
		return w, true
	}
	return 0, false
}
