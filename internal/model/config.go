package model

import "time"

// Config is the complete newsguard configuration, constructed once and
// handed to each component at construction time
type Config struct {
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Verdict  VerdictConfig  `yaml:"verdict" mapstructure:"verdict"`
	Trust    TrustConfig    `yaml:"trust" mapstructure:"trust"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// SearchConfig configures the source retriever
type SearchConfig struct {
	Provider string        `yaml:"provider" mapstructure:"provider" validate:"oneof=google jina"`
	APIKey   string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	EngineID string        `yaml:"engine_id,omitempty" mapstructure:"engine_id"` // Google Programmable Search cx
	BaseURL  string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	TopN     int           `yaml:"top_n" mapstructure:"top_n" validate:"min=1,max=10"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"min=1s"`
}

// LLMConfig configures the stance judge's language model
type LLMConfig struct {
	Provider      string        `yaml:"provider" mapstructure:"provider" validate:"oneof=gemini openai anthropic ollama"`
	Model         string        `yaml:"model" mapstructure:"model"`
	APIKey        string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL       string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"min=1s"`
	MaxTokens     int           `yaml:"max_tokens" mapstructure:"max_tokens" validate:"min=64,max=4096"`
	Temperature   float64       `yaml:"temperature" mapstructure:"temperature" validate:"min=0,max=1"`
	MaxInputChars int           `yaml:"max_input_chars" mapstructure:"max_input_chars" validate:"min=500"`
	RatePerSecond float64       `yaml:"rate_per_second" mapstructure:"rate_per_second" validate:"gt=0"`
	RateBurst     int           `yaml:"rate_burst" mapstructure:"rate_burst" validate:"min=1"`
	MaxAttempts   int           `yaml:"max_attempts" mapstructure:"max_attempts" validate:"min=1,max=5"`
}

// HTTPConfig configures page fetching
type HTTPConfig struct {
	FetchTimeout  time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout" validate:"min=1s"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent" validate:"required"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes" validate:"min=1024"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	DomainRate    float64       `yaml:"domain_rate" mapstructure:"domain_rate" validate:"gt=0"` // Requests per second per domain
	DomainBurst   int           `yaml:"domain_burst" mapstructure:"domain_burst" validate:"min=1"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// PipelineConfig bounds concurrency and latency of one request
type PipelineConfig struct {
	RequestTimeout        time.Duration `yaml:"request_timeout" mapstructure:"request_timeout" validate:"min=1s"`
	ExtractWorkers        int           `yaml:"extract_workers" mapstructure:"extract_workers" validate:"min=1,max=32"`
	JudgeWorkers          int           `yaml:"judge_workers" mapstructure:"judge_workers" validate:"min=1,max=32"`
	MaxConcurrentRequests int           `yaml:"max_concurrent_requests" mapstructure:"max_concurrent_requests" validate:"min=1"`
	MinTextChars          int           `yaml:"min_text_chars" mapstructure:"min_text_chars" validate:"min=1"`
	MaxTextChars          int           `yaml:"max_text_chars" mapstructure:"max_text_chars" validate:"gtfield=MinTextChars"`
}

// VerdictConfig holds the tunable aggregation constants
type VerdictConfig struct {
	ReliableAt     float64 `yaml:"reliable_at" mapstructure:"reliable_at" validate:"gt=50,max=100"`
	UnreliableAt   float64 `yaml:"unreliable_at" mapstructure:"unreliable_at" validate:"min=0,lt=50"`
	MixedBalance   float64 `yaml:"mixed_balance" mapstructure:"mixed_balance" validate:"gt=0,max=1"`
	TopSources     int     `yaml:"top_sources" mapstructure:"top_sources" validate:"min=1,max=20"`
	RationaleChars int     `yaml:"rationale_chars" mapstructure:"rationale_chars" validate:"min=40"`
}

// TrustConfig holds the bounds of the trust heuristic and its lookup table
type TrustConfig struct {
	BaseWeight       float64    `yaml:"base_weight" mapstructure:"base_weight" validate:"min=0,max=1"`
	MaxBonus         float64    `yaml:"max_bonus" mapstructure:"max_bonus" validate:"min=0,max=0.5"`
	MaxPenalty       float64    `yaml:"max_penalty" mapstructure:"max_penalty" validate:"min=0,max=0.5"`
	OfficialBonus    float64    `yaml:"official_bonus" mapstructure:"official_bonus" validate:"min=0,max=0.5"`
	AcademicBonus    float64    `yaml:"academic_bonus" mapstructure:"academic_bonus" validate:"min=0,max=0.5"`
	LookalikePenalty float64    `yaml:"lookalike_penalty" mapstructure:"lookalike_penalty" validate:"min=0,max=0.5"`
	MetaBonus        float64    `yaml:"meta_bonus" mapstructure:"meta_bonus" validate:"min=0,max=0.2"`
	MaxLengthBonus   float64    `yaml:"max_length_bonus" mapstructure:"max_length_bonus" validate:"min=0,max=0.2"`
	LengthSaturation int        `yaml:"length_saturation" mapstructure:"length_saturation" validate:"min=1"`
	Table            TrustTable `yaml:"table" mapstructure:"table"`
}

// TrustTable is the versioned allow-list / deny-list used by the trust scorer
type TrustTable struct {
	Version          string       `yaml:"version" mapstructure:"version" validate:"required"`
	Reliable         []DomainRule `yaml:"reliable" mapstructure:"reliable" validate:"dive"`
	LowQuality       []DomainRule `yaml:"low_quality" mapstructure:"low_quality" validate:"dive"`
	OfficialSuffixes []string     `yaml:"official_suffixes" mapstructure:"official_suffixes"`
	AcademicSuffixes []string     `yaml:"academic_suffixes" mapstructure:"academic_suffixes"`
}

// DomainRule assigns an adjustment to a domain (reliable) or pattern (low quality)
type DomainRule struct {
	Domain string  `yaml:"domain" mapstructure:"domain" validate:"required"`
	Weight float64 `yaml:"weight" mapstructure:"weight" validate:"min=0,max=1"`
}

// CacheConfig configures search and fetch caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Disk      bool          `yaml:"disk" mapstructure:"disk"`
	Dir       string        `yaml:"dir,omitempty" mapstructure:"dir"`
	SearchTTL time.Duration `yaml:"search_ttl" mapstructure:"search_ttl"`
	FetchTTL  time.Duration `yaml:"fetch_ttl" mapstructure:"fetch_ttl"`
}

// LogConfig configures zap
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr           string   `yaml:"addr" mapstructure:"addr" validate:"required"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxClaimChars  int      `yaml:"max_claim_chars" mapstructure:"max_claim_chars" validate:"min=16"`
}

// OutputConfig configures report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Provider: "google",
			TopN:     10,
			Timeout:  10 * time.Second,
		},
		LLM: LLMConfig{
			Provider:      "gemini",
			Model:         "", // Provider default
			Timeout:       30 * time.Second,
			MaxTokens:     400,
			Temperature:   0,
			MaxInputChars: 6000,
			RatePerSecond: 4,
			RateBurst:     4,
			MaxAttempts:   2,
		},
		HTTP: HTTPConfig{
			FetchTimeout:  8 * time.Second,
			UserAgent:     "Mozilla/5.0 (compatible; newsguard/0.3; +https://github.com/ppiankov/newsguard)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
			DomainRate:    2,
			DomainBurst:   2,
		},
		Pipeline: PipelineConfig{
			RequestTimeout:        60 * time.Second,
			ExtractWorkers:        6,
			JudgeWorkers:          4,
			MaxConcurrentRequests: 4,
			MinTextChars:          200,
			MaxTextChars:          20_000,
		},
		Verdict: VerdictConfig{
			ReliableAt:     65,
			UnreliableAt:   35,
			MixedBalance:   0.5,
			TopSources:     5,
			RationaleChars: 220,
		},
		Trust: TrustConfig{
			BaseWeight:       0.5,
			MaxBonus:         0.35,
			MaxPenalty:       0.35,
			OfficialBonus:    0.30,
			AcademicBonus:    0.25,
			LookalikePenalty: 0.20,
			MetaBonus:        0.05,
			MaxLengthBonus:   0.10,
			LengthSaturation: 4000,
			Table:            DefaultTrustTable(),
		},
		Cache: CacheConfig{
			Enabled:   true,
			Disk:      false,
			SearchTTL: 6 * time.Hour,
			FetchTTL:  24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Addr:          ":8080",
			MaxClaimChars: 4000,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}

// DefaultTrustTable returns the built-in domain reputation table.
// Weights are the allow-list bonus before clipping to TrustConfig.MaxBonus,
// or the penalty before clipping to TrustConfig.MaxPenalty.
func DefaultTrustTable() TrustTable {
	return TrustTable{
		Version: "2026.10-1",
		Reliable: []DomainRule{
			{Domain: "reuters.com", Weight: 0.45},
			{Domain: "apnews.com", Weight: 0.45},
			{Domain: "bbc.com", Weight: 0.42},
			{Domain: "bbc.co.uk", Weight: 0.42},
			{Domain: "nytimes.com", Weight: 0.40},
			{Domain: "thehindu.com", Weight: 0.40},
			{Domain: "theguardian.com", Weight: 0.38},
			{Domain: "indianexpress.com", Weight: 0.38},
			{Domain: "hindustantimes.com", Weight: 0.35},
			{Domain: "timesofindia.indiatimes.com", Weight: 0.35},
			{Domain: "indiatoday.in", Weight: 0.35},
			{Domain: "aljazeera.com", Weight: 0.35},
			{Domain: "ndtv.com", Weight: 0.33},
			{Domain: "thewire.in", Weight: 0.32},
			{Domain: "business-standard.com", Weight: 0.32},
			{Domain: "livemint.com", Weight: 0.32},
			{Domain: "scroll.in", Weight: 0.30},
			{Domain: "who.int", Weight: 0.40},
			{Domain: "nature.com", Weight: 0.40},
			{Domain: "snopes.com", Weight: 0.30},
			{Domain: "factcheck.org", Weight: 0.30},
			{Domain: "politifact.com", Weight: 0.30},
			{Domain: "wikipedia.org", Weight: 0.25},
		},
		LowQuality: []DomainRule{
			{Domain: "medium.com", Weight: 0.25},
			{Domain: ".blog", Weight: 0.25},
			{Domain: "wordpress.com", Weight: 0.25},
			{Domain: "blogspot.com", Weight: 0.25},
			{Domain: "substack.com", Weight: 0.15},
			{Domain: "reddit.com", Weight: 0.35},
			{Domain: "quora.com", Weight: 0.35},
			{Domain: "facebook.com", Weight: 0.35},
			{Domain: "twitter.com", Weight: 0.35},
			{Domain: "x.com", Weight: 0.35},
			{Domain: "tiktok.com", Weight: 0.35},
			{Domain: "youtube.com", Weight: 0.25},
		},
		OfficialSuffixes: []string{".gov", ".gov.in", ".nic.in", ".mil", ".gov.uk", ".europa.eu"},
		AcademicSuffixes: []string{".edu", ".ac.in", ".ac.uk", ".edu.au"},
	}
}
