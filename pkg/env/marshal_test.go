package env

import (
	"testing"
	"time"
)

type sampleConfig struct {
	Host     string        `env:"HOST"`
	Port     int           `env:"PORT,required"`
	APIKey   string        `env:"API_KEY" secret:"true"`
	Timeout  time.Duration `env:"TIMEOUT"`
	Debug    bool          `env:"DEBUG"`
	Ratio    float64       `env:"RATIO"`
	Empty    string        `env:"EMPTY"`
	NoTag    string
	internal string `env:"INTERNAL"`
}

func TestMarshalEnv(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{
			name: "all kinds",
			in: &sampleConfig{
				Host:     "localhost",
				Port:     8000,
				APIKey:   "sk-123",
				Timeout:  10 * time.Second,
				Debug:    true,
				Ratio:    0.5,
				NoTag:    "skip",
				internal: "skip",
			},
			want: "HOST=localhost\nPORT=8000\nAPI_KEY=********\nTIMEOUT=10s\nDEBUG=true\nRATIO=0.5\n",
		},
		{
			name: "zero values skipped",
			in:   &sampleConfig{},
			want: "",
		},
		{
			name: "value receiver",
			in:   sampleConfig{Host: "h"},
			want: "HOST=h\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalEnv(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMarshalEnv_RejectsNonStruct(t *testing.T) {
	if _, err := MarshalEnv(42); err == nil {
		t.Error("expected error for non-struct input")
	}

	var nilCfg *sampleConfig
	if _, err := MarshalEnv(nilCfg); err == nil {
		t.Error("expected error for nil pointer")
	}
}
