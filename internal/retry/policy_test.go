package retry

import (
	"testing"
	"time"

	"git.home.luguber.info/inful/presencewatch/internal/config"
)

// TestDefaultPolicy verifies the baseline default values.
func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.Mode != config.RetryBackoffExponential {
		t.Fatalf("expected exponential default mode got %s", p.Mode)
	}
	if p.Initial != 5*time.Second {
		t.Fatalf("expected initial 5s got %v", p.Initial)
	}
	if p.MaxAttempts != 3 {
		t.Fatalf("expected 3 attempts got %d", p.MaxAttempts)
	}
	if p.Max != 60*time.Second {
		t.Fatalf("expected 60s cap got %v", p.Max)
	}
}

// TestNewPolicyOverrides checks override precedence and clamping when initial > max.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, 5*time.Second, 2*time.Second, 5)
	if p.Initial != 2*time.Second {
		t.Fatalf("expected clamped initial 2s got %v", p.Initial)
	}
	if p.Mode != config.RetryBackoffFixed {
		t.Fatalf("expected fixed mode got %s", p.Mode)
	}
	if p.MaxAttempts != 5 {
		t.Fatalf("expected 5 attempts got %d", p.MaxAttempts)
	}

	unknown := NewPolicy("jitter", 0, 0, 0)
	if unknown != DefaultPolicy() {
		t.Fatalf("expected defaults for zero/unknown input got %+v", unknown)
	}
}

// TestDelayModes ensures fixed, linear, exponential behave and respect cap.
func TestDelayModes(t *testing.T) {
	cases := []struct {
		name   string
		policy Policy
		want   []time.Duration
	}{
		{"fixed", NewPolicy(config.RetryBackoffFixed, 100*time.Millisecond, time.Second, 3),
			[]time.Duration{100 * time.Millisecond, 100 * time.Millisecond, 100 * time.Millisecond}},
		{"linear", NewPolicy(config.RetryBackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 4),
			[]time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 250 * time.Millisecond, 250 * time.Millisecond}},
		{"exponential fetch default", DefaultPolicy(),
			[]time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second}},
		{"exponential capped", NewPolicy(config.RetryBackoffExponential, 50*time.Millisecond, 160*time.Millisecond, 5),
			[]time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 160 * time.Millisecond, 160 * time.Millisecond}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for i, want := range c.want {
				if got := c.policy.Delay(i + 1); got != want {
					t.Fatalf("attempt %d expected %v got %v", i+1, want, got)
				}
			}
		})
	}
}

// TestDelayEdgeCases ensures non-positive attempts yield zero and large attempts stay capped.
func TestDelayEdgeCases(t *testing.T) {
	p := DefaultPolicy()
	if d := p.Delay(0); d != 0 {
		t.Fatalf("attempt 0 expected 0 got %v", d)
	}
	if d := p.Delay(-1); d != 0 {
		t.Fatalf("attempt -1 expected 0 got %v", d)
	}
	if d := p.Delay(200); d != p.Max {
		t.Fatalf("attempt 200 expected cap %v got %v", p.Max, d)
	}
}

func TestFromConfig(t *testing.T) {
	p := FromConfig(config.RetryConfig{MaxAttempts: 4, Backoff: config.RetryBackoffLinear, InitialDelay: "2s", MaxDelay: "7s"})
	if p.MaxAttempts != 4 || p.Mode != config.RetryBackoffLinear || p.Initial != 2*time.Second || p.Max != 7*time.Second {
		t.Fatalf("unexpected policy %+v", p)
	}
}
