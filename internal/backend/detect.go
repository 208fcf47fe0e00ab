package backend

import (
	"fmt"
	"os"
)

// Status reports whether one backend could be used on this machine.
type Status struct {
	Name      string
	Binary    string
	Path      string
	Available bool
	Detail    string
}

// Detect reports on every backend auto-detection considers, in order.
func Detect(cfg Config) []Status {
	var out []Status

	piperBin := cfg.Piper.Binary
	if piperBin == "" {
		piperBin = "piper"
	}
	ps := binaryStatus(NamePiper, piperBin)
	if ps.Available {
		switch {
		case cfg.Piper.Model == "":
			ps.Available = false
			ps.Detail = "no model configured (piper.model)"
		default:
			if _, err := os.Stat(cfg.Piper.Model); err != nil {
				ps.Available = false
				ps.Detail = fmt.Sprintf("model %s not found", cfg.Piper.Model)
			} else {
				ps.Detail = "model " + cfg.Piper.Model
			}
		}
	}
	out = append(out, ps)

	out = append(out, binaryStatus(NameSpd, spdBinary))
	for _, bin := range espeakBinaries {
		out = append(out, binaryStatus(NameEspeak, bin))
	}

	out = append(out, Status{
		Name:      NameLog,
		Available: true,
		Detail:    "writes utterances to the log",
	})
	return out
}

func binaryStatus(name, bin string) Status {
	s := Status{Name: name, Binary: bin}
	path, err := lookPath(bin)
	if err != nil {
		s.Detail = "not installed"
		return s
	}
	s.Path = path
	s.Available = true
	return s
}
