package model

import "time"

// Config is the complete aidmatch configuration. Every scoring threshold
// lives here so policy can change without code changes.
type Config struct {
	Verification VerificationConfig `yaml:"verification" mapstructure:"verification"`
	Authority    AuthorityConfig    `yaml:"authority" mapstructure:"authority"`
	Fraud        FraudConfig        `yaml:"fraud" mapstructure:"fraud"`
	Matching     MatchingConfig     `yaml:"matching" mapstructure:"matching"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig    `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// VerificationConfig holds verdict thresholds and per-kind rule parameters
type VerificationConfig struct {
	VerifiedThreshold        int      `yaml:"verified_threshold" mapstructure:"verified_threshold"`
	RejectThreshold          int      `yaml:"reject_threshold" mapstructure:"reject_threshold"`
	PoorImageThreshold       int      `yaml:"poor_image_threshold" mapstructure:"poor_image_threshold"`
	MinImageConfidence       int      `yaml:"min_image_confidence" mapstructure:"min_image_confidence"`
	RequiredSecurityFeatures []string `yaml:"required_security_features" mapstructure:"required_security_features"`

	DeepfakeThreshold int     `yaml:"deepfake_threshold" mapstructure:"deepfake_threshold"`
	LandmarkMin       float64 `yaml:"landmark_min" mapstructure:"landmark_min"`
	LightingMin       float64 `yaml:"lighting_min" mapstructure:"lighting_min"`
	CompressionMax    float64 `yaml:"compression_max" mapstructure:"compression_max"`

	PopulationThreshold  int `yaml:"population_threshold" mapstructure:"population_threshold"`
	CrisisBaseConfidence int `yaml:"crisis_base_confidence" mapstructure:"crisis_base_confidence"`
	PrimarySourceBonus   int `yaml:"primary_source_bonus" mapstructure:"primary_source_bonus"`
	SecondarySourceBonus int `yaml:"secondary_source_bonus" mapstructure:"secondary_source_bonus"`
	TertiarySourceBonus  int `yaml:"tertiary_source_bonus" mapstructure:"tertiary_source_bonus"`
}

// AuthorityConfig classifies corroborating crisis sources into tiers
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"`
	PathPatterns     []PathPattern     `yaml:"path_patterns,omitempty" mapstructure:"path_patterns"`
}

// PathPattern assigns a tier to URLs whose path matches Pattern
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Tier    string `yaml:"tier" mapstructure:"tier"`
}

// FraudConfig holds cross-record check parameters
type FraudConfig struct {
	SimilarityThreshold float64            `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	OutlierPct          float64            `yaml:"outlier_pct" mapstructure:"outlier_pct"`
	HighSeverityPct     float64            `yaml:"high_severity_pct" mapstructure:"high_severity_pct"`
	RegionalAverages    map[string]float64 `yaml:"regional_averages" mapstructure:"regional_averages"`
	DefaultAverage      float64            `yaml:"default_average" mapstructure:"default_average"` // 0 disables the fallback
}

// Weights of the four match factors
type Weights struct {
	Specialization float64 `yaml:"specialization" mapstructure:"specialization"`
	Geography      float64 `yaml:"geography" mapstructure:"geography"`
	Trust          float64 `yaml:"trust" mapstructure:"trust"`
	Capacity       float64 `yaml:"capacity" mapstructure:"capacity"`
}

// MatchingConfig holds the provider ranking policy
type MatchingConfig struct {
	Weights            Weights             `yaml:"weights" mapstructure:"weights"`
	PreferenceBonus    int                 `yaml:"preference_bonus" mapstructure:"preference_bonus"`
	ReasonThreshold    int                 `yaml:"reason_threshold" mapstructure:"reason_threshold"`
	SiblingScore       int                 `yaml:"sibling_score" mapstructure:"sibling_score"`
	SameDivisionScore  int                 `yaml:"same_division_score" mapstructure:"same_division_score"`
	OtherDivisionScore int                 `yaml:"other_division_score" mapstructure:"other_division_score"`
	FastResponseHours  int                 `yaml:"fast_response_hours" mapstructure:"fast_response_hours"`
	CategoryGroups     map[string][]string `yaml:"category_groups" mapstructure:"category_groups"` // group -> sibling categories
	Divisions          map[string][]string `yaml:"divisions" mapstructure:"divisions"`             // division -> districts
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitConfig controls the batch and API limiters
type RateLimitConfig struct {
	RequestsPerSecond float64            `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int                `yaml:"burst_size" mapstructure:"burst_size"`
	IdleTTL           time.Duration      `yaml:"idle_ttl" mapstructure:"idle_ttl"`
	ClientOverrides   map[string]KeyRate `yaml:"client_overrides,omitempty" mapstructure:"client_overrides"`
}

// KeyRate is a per-key limit that replaces the default for one client
type KeyRate struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// CacheConfig controls the snapshot cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// LLMConfig configures the optional reviewer-notes drafter
type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // openai, ollama, "" (disabled)
	Model          string `yaml:"model" mapstructure:"model"`
	APIKey         string `yaml:"-" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout        int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	StrictEvidence bool   `yaml:"strict_evidence" mapstructure:"strict_evidence"`
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	HTTPProxy      string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy     string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// ServerConfig controls the HTTP facade
type ServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	ProvidersFile   string        `yaml:"providers_file,omitempty" mapstructure:"providers_file"`
	RegistryFile    string        `yaml:"registry_file,omitempty" mapstructure:"registry_file"`
}

// LoggingConfig controls logrus output
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the default policy
func DefaultConfig() *Config {
	return &Config{
		Verification: VerificationConfig{
			VerifiedThreshold:        80,
			RejectThreshold:          50,
			PoorImageThreshold:       70,
			MinImageConfidence:       60,
			RequiredSecurityFeatures: []string{"hologram"},
			DeepfakeThreshold:        75,
			LandmarkMin:              0.7,
			LightingMin:              0.7,
			CompressionMax:           0.4,
			PopulationThreshold:      100000,
			CrisisBaseConfidence:     80,
			PrimarySourceBonus:       10,
			SecondarySourceBonus:     5,
			TertiarySourceBonus:      2,
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"gov.bd",
				"un.org",
				"reliefweb.int",
				"who.int",
				"unicef.org",
				"unhcr.org",
				"wfp.org",
			},
			SecondaryDomains: []string{
				"ifrc.org",
				"bdrcs.org",
				"brac.net",
				"msf.org",
				"thedailystar.net",
				"prothomalo.com",
				"bbc.com",
				"reuters.com",
			},
		},
		Fraud: FraudConfig{
			SimilarityThreshold: 0.8,
			OutlierPct:          40,
			HighSeverityPct:     60,
			RegionalAverages: map[string]float64{
				"shelter":          8500,
				"food":             3500,
				"medical":          12000,
				"education":        5000,
				"water-sanitation": 4000,
				"clothing":         2500,
				"livelihood":       15000,
			},
		},
		Matching: MatchingConfig{
			Weights: Weights{
				Specialization: 0.35,
				Geography:      0.20,
				Trust:          0.30,
				Capacity:       0.15,
			},
			PreferenceBonus:    10,
			ReasonThreshold:    70,
			SiblingScore:       50,
			SameDivisionScore:  70,
			OtherDivisionScore: 30,
			FastResponseHours:  24,
			CategoryGroups: map[string][]string{
				"health":    {"medical", "water-sanitation", "mental-health"},
				"basic":     {"food", "clothing", "nutrition"},
				"housing":   {"shelter", "disaster-relief"},
				"prospects": {"education", "livelihood"},
			},
			Divisions: map[string][]string{
				"dhaka":      {"dhaka", "gazipur", "narayanganj", "tangail", "faridpur"},
				"chattogram": {"chattogram", "cox's bazar", "cumilla", "feni", "noakhali"},
				"sylhet":     {"sylhet", "sunamganj", "habiganj", "moulvibazar"},
				"khulna":     {"khulna", "jessore", "satkhira", "bagerhat"},
				"rajshahi":   {"rajshahi", "bogura", "pabna", "natore"},
				"barishal":   {"barishal", "bhola", "patuakhali", "pirojpur"},
				"rangpur":    {"rangpur", "dinajpur", "kurigram", "gaibandha"},
				"mymensingh": {"mymensingh", "jamalpur", "netrokona", "sherpur"},
			},
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 20,
			BurstSize:         40,
			IdleTTL:           10 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".aidmatch-cache",
			MemoryTTL: 5 * time.Minute,
			DiskTTL:   time.Hour,
		},
		LLM: LLMConfig{
			Provider:       "", // Disabled by default
			Timeout:        20,
			StrictEvidence: true,
			MaxTokens:      400,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 20 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
