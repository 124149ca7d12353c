package main

import "testing"

func TestCommandsRegistered(t *testing.T) {
	want := []string{"serve", "validate", "sweep", "convert", "openapi", "version"}

	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}

	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q is not registered on the root command", name)
		}
	}
}

func TestGlobalFlags(t *testing.T) {
	configFlag := rootCmd.PersistentFlags().Lookup("config")
	if configFlag == nil {
		t.Fatal("persistent --config flag is not registered")
	}
	if configFlag.DefValue != "config/config.yml" {
		t.Errorf("--config default = %q, want %q", configFlag.DefValue, "config/config.yml")
	}

	for _, name := range []string{"log-level", "log-format"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("persistent --%s flag is not registered", name)
		}
	}
}

func TestServeCommandFlags(t *testing.T) {
	if serveCmd.Flags().Lookup("listen") == nil {
		t.Error("serve --listen flag is not registered")
	}
	if serveCmd.Flags().Lookup("dry-run") == nil {
		t.Error("serve --dry-run flag is not registered")
	}
}
