package util

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 40)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("line %q is longer than %d characters", line, Wrap)
		}
	}
	if WrapString("") != "" {
		t.Error("empty text should stay empty")
	}
}

func TestFactories(t *testing.T) {
	t.Cleanup(viper.Reset)

	for _, name := range []string{"text", "binary", "proto"} {
		viper.Set("serializer", name)
		s, err := GetSerializer()
		if err != nil {
			t.Fatalf("GetSerializer(%s) failed: %v", name, err)
		}
		if s.GetName() != name {
			t.Errorf("GetSerializer(%s) returned %s", name, s.GetName())
		}
	}
	viper.Set("serializer", "json")
	if _, err := GetSerializer(); err == nil {
		t.Error("unknown serializer should be rejected")
	}

	for _, name := range []string{"tcp", "unix", "ws", "quic"} {
		viper.Set("transport", name)
		if _, err := GetTransport(); err != nil {
			t.Errorf("GetTransport(%s) failed: %v", name, err)
		}
		if _, err := GetServerTransport(); err != nil {
			t.Errorf("GetServerTransport(%s) failed: %v", name, err)
		}
	}
	viper.Set("transport", "http")
	if _, err := GetTransport(); err == nil {
		t.Error("unknown transport should be rejected")
	}
}

func TestGetClientConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("endpoint", "example:7777")
	viper.Set("timeout", 3)
	viper.Set("framing", "length")
	viper.Set("transport-read-buffer", 64)

	config := GetClientConfig()
	if config.Transport.Endpoint != "example:7777" || config.TimeoutSecond != 3 {
		t.Errorf("unexpected config %+v", config)
	}
	if config.Transport.Framing != "length" || config.Transport.ReadBufferSize != 64*1024 {
		t.Errorf("unexpected transport config %+v", config.Transport)
	}
}
