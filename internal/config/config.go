package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"github.com/Alexander-D-Karpov/waveview/internal/platform"
)

type Config struct {
	Debug bool `mapstructure:"debug"`

	Audio struct {
		SampleRate    int     `mapstructure:"sample_rate"`
		BufferSize    int     `mapstructure:"buffer_size"`
		DefaultVolume float64 `mapstructure:"default_volume"`
	} `mapstructure:"audio"`

	Waveform struct {
		BarWidth        int    `mapstructure:"bar_width"`
		Gap             int    `mapstructure:"gap"`
		FallbackWidth   int    `mapstructure:"fallback_width"`
		DebounceMs      int    `mapstructure:"debounce_ms"`
		FrameRate       int    `mapstructure:"frame_rate"`
		WorkerChunkSize int    `mapstructure:"worker_chunk_size"`
		DisableWorker   bool   `mapstructure:"disable_worker"`
		BackgroundColor string `mapstructure:"background_color"`
		BarColor        string `mapstructure:"bar_color"`
		ProgressColor   string `mapstructure:"progress_color"`
		PlayheadColor   string `mapstructure:"playhead_color"`
		MarkerColor     string `mapstructure:"marker_color"`
	} `mapstructure:"waveform"`

	Network struct {
		Timeout   int    `mapstructure:"timeout"`
		Retries   int    `mapstructure:"retries"`
		UserAgent string `mapstructure:"user_agent"`
		RateLimit struct {
			RequestsPerSecond int `mapstructure:"requests_per_second"`
			BurstSize         int `mapstructure:"burst_size"`
		} `mapstructure:"rate_limit"`
	} `mapstructure:"network"`

	Storage struct {
		DatabasePath string `mapstructure:"database_path"`
		EnableWAL    bool   `mapstructure:"enable_wal"`
	} `mapstructure:"storage"`

	Search struct {
		MaxResults int `mapstructure:"max_results"`
	} `mapstructure:"search"`

	UI struct {
		WindowWidth    int `mapstructure:"window_width"`
		WindowHeight   int `mapstructure:"window_height"`
		WaveformHeight int `mapstructure:"waveform_height"`
	} `mapstructure:"ui"`
}

func Load(configPath string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		configDir, err := platform.GetConfigDir()
		if err != nil {
			return nil, err
		}
		viper.AddConfigPath(configDir)
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("WAVEVIEW")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := ensureDirectories(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a config without touching the filesystem, used by the
// diagnostic tools and tests.
func Default() *Config {
	setDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return &Config{}
	}
	return &cfg
}

func setDefaults() {
	viper.SetDefault("debug", false)

	viper.SetDefault("audio.sample_rate", 44100)
	viper.SetDefault("audio.buffer_size", getDefaultBufferSize())
	viper.SetDefault("audio.default_volume", 0.7)

	viper.SetDefault("waveform.bar_width", 2)
	viper.SetDefault("waveform.gap", 1)
	viper.SetDefault("waveform.fallback_width", 600)
	viper.SetDefault("waveform.debounce_ms", 150)
	viper.SetDefault("waveform.frame_rate", 30)
	viper.SetDefault("waveform.worker_chunk_size", 65536)
	viper.SetDefault("waveform.disable_worker", false)
	viper.SetDefault("waveform.background_color", "#1a1a1a")
	viper.SetDefault("waveform.bar_color", "#5f5f66")
	viper.SetDefault("waveform.progress_color", "#4d90fe")
	viper.SetDefault("waveform.playhead_color", "#ffffff")
	viper.SetDefault("waveform.marker_color", "#ffb347")

	viper.SetDefault("network.timeout", 30)
	viper.SetDefault("network.retries", 3)
	viper.SetDefault("network.user_agent", "WaveView/1.0.0")
	viper.SetDefault("network.rate_limit.requests_per_second", 10)
	viper.SetDefault("network.rate_limit.burst_size", 5)

	dataDir, _ := platform.GetDataDir()
	viper.SetDefault("storage.database_path", filepath.Join(dataDir, "waveview.db"))
	viper.SetDefault("storage.enable_wal", true)

	viper.SetDefault("search.max_results", 50)

	viper.SetDefault("ui.window_width", 1000)
	viper.SetDefault("ui.window_height", 360)
	viper.SetDefault("ui.waveform_height", 140)
}

func getDefaultBufferSize() int {
	switch runtime.GOOS {
	case "linux":
		return 16384
	default:
		return 8192
	}
}

func ensureDirectories(cfg *Config) error {
	return os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755)
}

func (c *Config) Save() error {
	configDir, err := platform.GetConfigDir()
	if err != nil {
		return err
	}

	configFile := filepath.Join(configDir, "config.yaml")
	return viper.WriteConfigAs(configFile)
}
