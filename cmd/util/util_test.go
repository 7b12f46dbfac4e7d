package util

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 40)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("line longer than %d: %q", Wrap, line)
		}
	}
	if got := WrapString("  short   text "); got != "short text" {
		t.Errorf("got %q", got)
	}
}

func TestGetClientConfig(t *testing.T) {
	defer viper.Reset()

	cmd := &cobra.Command{Use: "test"}
	SetupClientFlags(cmd)
	if err := cmd.PersistentFlags().Set("endpoint", "http://a:1, http://b:2,"); err != nil {
		t.Fatal(err)
	}
	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		t.Fatal(err)
	}

	conf := GetClientConfig()
	if len(conf.Endpoints) != 2 || conf.Endpoints[1] != "http://b:2" {
		t.Errorf("unexpected endpoints %v", conf.Endpoints)
	}
	if conf.TimeoutSecond != 10 || conf.RetryCount != 3 {
		t.Errorf("unexpected defaults %+v", conf)
	}
}
