package main

import (
	"testing"

	"github.com/bigkaa/goartstore/fileserver/internal/config"
)

func TestParseOwnerName(t *testing.T) {
	tests := []struct {
		name     string
		hostname string
		want     string
	}{
		{"Deployment", "fileserver-7d8f9b6c4f-x2k9z", "fileserver"},
		{"Deployment с дефисами в имени", "onlyoffice-fileserver-01-5fbcd8d7b9-k4m2j", "onlyoffice-fileserver-01"},
		{"StatefulSet ordinal 0", "fileserver-0", "fileserver"},
		{"StatefulSet ordinal 12", "fileserver-12", "fileserver"},
		{"простое имя", "fileserver", "fileserver"},
		{"localhost", "localhost", "localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseOwnerName(tt.hostname); got != tt.want {
				t.Errorf("parseOwnerName(%q) = %q, ожидалось %q", tt.hostname, got, tt.want)
			}
		})
	}
}

func TestDephealthName_Explicit(t *testing.T) {
	cfg := &config.Config{DephealthName: "office-files"}
	if got := dephealthName(cfg); got != "office-files" {
		t.Errorf("ожидалось office-files, получено %q", got)
	}
}

func TestDephealthName_FromHostname(t *testing.T) {
	if got := dephealthName(&config.Config{}); got == "" {
		t.Error("имя экземпляра не должно быть пустым")
	}
}
