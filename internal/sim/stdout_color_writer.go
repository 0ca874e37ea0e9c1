package sim

import (
	"fmt"
	"text/tabwriter"
	"time"

	"threatsim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

var enemyPalette = []string{colorRed, colorGreen, colorYellow, colorBlue, colorMagenta, colorCyan}

func (w *StdoutWriter) enemyColor(name string) string {
	if c, ok := w.enemyColors[name]; ok {
		return c
	}
	c := enemyPalette[w.colorIdx%len(enemyPalette)]
	w.enemyColors[name] = c
	w.colorIdx++
	return c
}

func (w *StdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}
	fmt.Fprintln(w.out, "Threat Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Damage Window (ticks):\t%d\n", w.cfg.Threat.DamageWindowTicks)
	fmt.Fprintf(tw, "Position Window (ticks):\t%d\n", w.cfg.Threat.PositionWindowTicks)
	fmt.Fprintf(tw, "Repulsion Constant:\t%.0f\n", w.cfg.Threat.RepulsionConstant)
	fmt.Fprintf(tw, "Radar Range:\t%.0f\n", w.cfg.Simulation.RadarRange)
	fmt.Fprintf(tw, "Radar Dropout:\t%.2f\n", w.cfg.Simulation.RadarDropout)
	fmt.Fprintf(tw, "Sensor Noise:\t%.2f\n", w.cfg.Simulation.SensorNoise)
	fmt.Fprintf(tw, "Scenario:\t%s\n", w.cfg.Simulation.Scenario)
	tw.Flush()
	fmt.Fprintln(w.out)
}

// dangerColor grades a danger score by the damage of a full-power hit.
func dangerColor(score float64) string {
	switch {
	case score >= 10:
		return colorRed
	case score > 0:
		return colorYellow
	}
	return colorGreen
}

func (w *StdoutWriter) printThreat(r telemetry.ThreatRow) {
	seen := colorGray + "stale" + colorReset
	if r.Seen {
		seen = colorGreen + "seen" + colorReset
	}
	fmt.Fprintf(w.out, "%s[%s]%s %st=%d%s %senemy=%s%s pos=(%.1f,%.1f) %sdist=%.1f%s force=(%.2f,%.2f) %sdanger=%.2f%s energy=%.1f %s\n",
		colorGray, r.Timestamp.Format(time.RFC3339), colorReset,
		colorBlue, r.Tick, colorReset,
		w.enemyColor(r.Enemy), r.Enemy, colorReset,
		r.X, r.Y,
		colorCyan, r.Distance, colorReset,
		r.RepulsionX, r.RepulsionY,
		dangerColor(r.DangerScore), r.DangerScore, colorReset,
		r.Energy, seen)
}

func (w *StdoutWriter) printHit(r telemetry.HitRow) {
	fmt.Fprintf(w.out, "%s[%s]%s %sHIT%s t=%d from %s%s%s power=%.2f damage=%.2f\n",
		colorGray, r.Timestamp.Format(time.RFC3339), colorReset,
		colorRed, colorReset, r.Tick,
		w.enemyColor(r.Source), r.Source, colorReset,
		r.Power, r.Damage)
}

func (w *StdoutWriter) printState(r telemetry.BattleStateRow) {
	fmt.Fprintf(w.out, "%s[%s]%s %sSTATE%s t=%d observer=(%.1f,%.1f) energy=%.1f tracked=%d visible=%d hits=%d\n",
		colorGray, r.Timestamp.Format(time.RFC3339), colorReset,
		colorMagenta, colorReset, r.Tick,
		r.ObserverX, r.ObserverY, r.ObserverEnergy,
		r.Tracked, r.Visible, r.Hits)
}
