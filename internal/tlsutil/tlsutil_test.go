package tlsutil

import (
	"crypto/tls"
	"testing"
)

func TestDefaultTLSConfig(t *testing.T) {
	cfg := DefaultTLSConfig()
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %d, want %d", cfg.MinVersion, tls.VersionTLS12)
	}
	if len(cfg.CipherSuites) == 0 {
		t.Error("CipherSuites should not be empty")
	}
	// Verify all cipher suites are AEAD
	for _, cs := range cfg.CipherSuites {
		switch cs {
		case tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305:
			// OK — AEAD cipher suite
		default:
			t.Errorf("unexpected non-AEAD cipher suite: %d", cs)
		}
	}
}

func TestClientConfig(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{addr: "redis.example.com:6380", want: "redis.example.com"},
		{addr: "10.0.0.5:6379", want: "10.0.0.5"},
		{addr: "[::1]:6379", want: "::1"},
		{addr: "redis.internal", want: "redis.internal"},
	}

	for _, tt := range tests {
		cfg := ClientConfig(tt.addr)
		if cfg.ServerName != tt.want {
			t.Errorf("ClientConfig(%q).ServerName = %q, want %q", tt.addr, cfg.ServerName, tt.want)
		}
		if cfg.MinVersion != tls.VersionTLS12 {
			t.Errorf("ClientConfig(%q).MinVersion = %d, want %d", tt.addr, cfg.MinVersion, tls.VersionTLS12)
		}
	}
}
