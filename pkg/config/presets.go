package config

import "time"

// RealtimePreset returns the named push channel tuning. The empty name is
// "default".
//
//	default  reconnect 500ms..30s, ping 25s
//	eager    reconnect 250ms..5s,  ping 10s  (local or flaky networks)
//	relaxed  reconnect 2s..2m,     ping 60s  (metered connections)
func RealtimePreset(name string) (RealtimeConfig, bool) {
	switch name {
	case "", "default":
		return defaultRealtime(), true
	case "eager":
		return RealtimeConfig{
			Preset:         "eager",
			MinBackoff:     D(250 * time.Millisecond),
			MaxBackoff:     D(5 * time.Second),
			PingInterval:   D(10 * time.Second),
			CatchUpTimeout: D(10 * time.Second),
		}, true
	case "relaxed":
		return RealtimeConfig{
			Preset:         "relaxed",
			MinBackoff:     D(2 * time.Second),
			MaxBackoff:     D(2 * time.Minute),
			PingInterval:   D(60 * time.Second),
			CatchUpTimeout: D(30 * time.Second),
		}, true
	default:
		return defaultRealtime(), false
	}
}

func defaultRealtime() RealtimeConfig {
	return RealtimeConfig{
		Preset:         "default",
		MinBackoff:     D(500 * time.Millisecond),
		MaxBackoff:     D(30 * time.Second),
		PingInterval:   D(25 * time.Second),
		CatchUpTimeout: D(20 * time.Second),
	}
}

// withDefaults fills every zero value from p.
func (r RealtimeConfig) withDefaults(p RealtimeConfig) RealtimeConfig {
	if r.Preset == "" {
		r.Preset = p.Preset
	}
	for _, f := range []struct{ dst, src *Duration }{
		{&r.MinBackoff, &p.MinBackoff},
		{&r.MaxBackoff, &p.MaxBackoff},
		{&r.PingInterval, &p.PingInterval},
		{&r.CatchUpTimeout, &p.CatchUpTimeout},
	} {
		if f.dst.Duration == 0 {
			*f.dst = *f.src
		}
	}
	return r
}
