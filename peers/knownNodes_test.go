package peers

import (
	"errors"
	"testing"

	"golang.org/x/exp/slices"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"127.0.0.1:5001", "127.0.0.1:5001", false},
		{"http://192.168.0.5:5000", "192.168.0.5:5000", false},
		{"https://node.example:443/", "node.example:443", false},
		{"  localhost:5002 ", "localhost:5002", false},
		{"[::1]:5000", "[::1]:5000", false},
		{"", "", true},
		{"localhost", "", true},
		{":5000", "", true},
		{"ftp://host:21", "", true},
		{"host:port", "", true},
		{"host:70000", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAddress(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAddress) {
					t.Errorf("ParseAddress(%q) error = %v, want ErrInvalidAddress", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddress(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseAddress(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	kn := NewKnownNodes("127.0.0.1:5000")

	steps := []struct {
		in    string
		added bool
	}{
		{"127.0.0.1:5002", true},
		{"http://127.0.0.1:5001", true},
		{"127.0.0.1:5002", false},
		{"http://127.0.0.1:5000", false},
	}
	for _, s := range steps {
		added, err := kn.Register(s.in)
		if err != nil {
			t.Fatalf("Register(%q) error = %v", s.in, err)
		}
		if added != s.added {
			t.Errorf("Register(%q) = %v, want %v", s.in, added, s.added)
		}
	}
	if _, err := kn.Register("nonsense"); err == nil {
		t.Error("Register(nonsense) succeeded")
	}

	want := []string{"127.0.0.1:5001", "127.0.0.1:5002"}
	if got := kn.Addresses(); !slices.Equal(got, want) {
		t.Errorf("Addresses() = %v, want %v", got, want)
	}

	kn.Remove("127.0.0.1:5001")
	kn.Remove("127.0.0.1:9999")
	if kn.Len() != 1 || kn.Contains("127.0.0.1:5001") {
		t.Errorf("after Remove: %v", kn.Addresses())
	}
}

func TestP2PAddress(t *testing.T) {
	got, err := P2PAddress("127.0.0.1:5001", 1000)
	if err != nil || got != "127.0.0.1:6001" {
		t.Errorf("P2PAddress() = %q, %v", got, err)
	}
	if _, err := P2PAddress("127.0.0.1:65000", 1000); err == nil {
		t.Error("port overflow accepted")
	}
	if _, err := P2PAddress("no-port", 1000); err == nil {
		t.Error("missing port accepted")
	}
}
