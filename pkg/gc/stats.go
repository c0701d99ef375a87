package gc

import (
	"strconv"
	"strings"
)

// PerGenerationStatistics holds the counters a collector tracks for one
// generation: how much is currently used, how many collections have run
// against it, and the byte totals for each phase of the most recent one.
type PerGenerationStatistics struct {
	UsedZ     int
	NGc       int
	NewAllocZ int
	ScannedZ  int
	SurviveZ  int
	PromoteZ  int
}

// Compact renders a single-line form, e.g.
//
//	<PerGenerationStatistics :used_z 0 :n_gc 0 :new_alloc_z 0 :scanned_z 0 :survive_z 0 :promote_z 0>
func (s PerGenerationStatistics) Compact() string {
	return fmtTag("PerGenerationStatistics",
		kv("used_z", s.UsedZ), kv("n_gc", s.NGc), kv("new_alloc_z", s.NewAllocZ),
		kv("scanned_z", s.ScannedZ), kv("survive_z", s.SurviveZ), kv("promote_z", s.PromoteZ))
}

func (s PerGenerationStatistics) String() string { return s.Compact() }

// pretty renders the indented multi-line form used inside GcStatistics's own
// pretty-printer, at the given indent depth (in units of two spaces).
func (s PerGenerationStatistics) pretty(indent int) string {
	pad := strings.Repeat("  ", indent)
	pad1 := strings.Repeat("  ", indent+1)
	var b strings.Builder
	b.WriteString("<PerGenerationStatistics\n")
	b.WriteString(pad1 + kvLine("used_z", s.UsedZ))
	b.WriteString(pad1 + kvLine("n_gc", s.NGc))
	b.WriteString(pad1 + kvLine("new_alloc_z", s.NewAllocZ))
	b.WriteString(pad1 + kvLine("scanned_z", s.ScannedZ))
	b.WriteString(pad1 + kvLine("survive_z", s.SurviveZ))
	b.WriteString(pad + "  :promote_z " + itoa(s.PromoteZ) + ">")
	return b.String()
}

// GcStatistics is the external snapshot of a [Collector]'s lifetime
// counters, in the exact shape and key names the dump format uses: two
// PerGenerationStatistics entries (nursery, tenured) plus top-level totals.
type GcStatistics struct {
	gen [2]PerGenerationStatistics

	TotalAllocated   int
	TotalPromotedSab int
	TotalPromoted    int
	NMutation        int
	NLoggedMutation  int
	NXgenMutation    int
	NXckpMutation    int
}

// Nursery returns the nursery generation's statistics.
func (s GcStatistics) Nursery() PerGenerationStatistics { return s.gen[Nursery] }

// Tenured returns the tenured generation's statistics.
func (s GcStatistics) Tenured() PerGenerationStatistics { return s.gen[Tenured] }

// Compact renders the single-line form, with the same keys as String:
//
//	<GcStatistics :gen_v [<PerGenerationStatistics ...> <PerGenerationStatistics ...>] :total_allocated 0 :total_promoted_sab 0 :total_promoted 0 :n_mutation 0 :n_logged_mutation 0 :n_xgen_mutation 0 :n_xckp_mutation 0>
func (s GcStatistics) Compact() string {
	genV := "[" + s.gen[Nursery].Compact() + " " + s.gen[Tenured].Compact() + "]"
	return fmtTag("GcStatistics",
		":gen_v "+genV, kv("total_allocated", s.TotalAllocated), kv("total_promoted_sab", s.TotalPromotedSab),
		kv("total_promoted", s.TotalPromoted), kv("n_mutation", s.NMutation), kv("n_logged_mutation", s.NLoggedMutation),
		kv("n_xgen_mutation", s.NXgenMutation), kv("n_xckp_mutation", s.NXckpMutation))
}

// String renders the pretty, multi-line form.
func (s GcStatistics) String() string {
	var b strings.Builder
	b.WriteString("<GcStatistics\n")
	b.WriteString("  :gen_v\n")
	b.WriteString("    [ " + s.gen[Nursery].pretty(2) + ",\n")
	b.WriteString("      " + s.gen[Tenured].pretty(2) + " ]\n")
	b.WriteString("  " + kvLine("total_allocated", s.TotalAllocated))
	b.WriteString("  " + kvLine("total_promoted_sab", s.TotalPromotedSab))
	b.WriteString("  " + kvLine("total_promoted", s.TotalPromoted))
	b.WriteString("  " + kvLine("n_mutation", s.NMutation))
	b.WriteString("  " + kvLine("n_logged_mutation", s.NLoggedMutation))
	b.WriteString("  " + kvLine("n_xgen_mutation", s.NXgenMutation))
	b.WriteString("  " + ":n_xckp_mutation " + itoa(s.NXckpMutation) + ">")
	return b.String()
}

// GcStatisticsExt is GcStatistics plus the raw nursery/tenured byte
// breakdown; its base form embeds GcStatistics (per-mutation counters
// included) unchanged.
type GcStatisticsExt struct {
	GcStatistics

	NurseryZ                int
	NurseryBeforeCheckpoint int
	NurseryAfterCheckpoint  int
	TenuredZ                int
}

// Compact renders the extended single-line form.
func (s GcStatisticsExt) Compact() string {
	base := strings.TrimSuffix(s.GcStatistics.Compact(), ">")
	return base +
		" " + kv("nursery_z", s.NurseryZ) +
		" " + kv("nursery_before_checkpoint_z", s.NurseryBeforeCheckpoint) +
		" " + kv("nursery_after_checkpoint_z", s.NurseryAfterCheckpoint) +
		" " + kv("tenured_z", s.TenuredZ) + ">"
}

// String renders the extended pretty, multi-line form.
func (s GcStatisticsExt) String() string {
	base := strings.TrimSuffix(s.GcStatistics.String(), ">")
	var b strings.Builder
	b.WriteString(base + "\n")
	b.WriteString("  " + kvLine("nursery_z", s.NurseryZ))
	b.WriteString("  " + kvLine("nursery_before_checkpoint_z", s.NurseryBeforeCheckpoint))
	b.WriteString("  " + kvLine("nursery_after_checkpoint_z", s.NurseryAfterCheckpoint))
	b.WriteString("  :tenured_z " + itoa(s.TenuredZ) + ">")
	return b.String()
}

// Extended augments a Stats() snapshot with the byte breakdown only the
// collector itself can supply (checkpoint split, current tenured usage).
func (c *Collector) Extended() GcStatisticsExt {
	before, after := c.nurseryBeforeAfter()
	base := c.Stats()
	base.gen[Nursery].UsedZ = c.nurseryAlloc
	base.gen[Tenured].UsedZ = c.tenuredAlloc
	return GcStatisticsExt{
		GcStatistics:            base,
		NurseryZ:                c.nurseryAlloc,
		NurseryBeforeCheckpoint: before,
		NurseryAfterCheckpoint:  after,
		TenuredZ:                c.tenuredAlloc,
	}
}

func fmtTag(name string, fields ...string) string {
	return "<" + name + " " + strings.Join(fields, " ") + ">"
}

func kv(key string, v int) string { return ":" + key + " " + itoa(v) }

func kvLine(key string, v int) string { return ":" + key + " " + itoa(v) + "\n" }

func itoa(v int) string { return strconv.Itoa(v) }
