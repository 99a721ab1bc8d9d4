package observability

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	jobmetrics "github.com/odyssey-erp/ticketdash/internal/jobs"
	"github.com/odyssey-erp/ticketdash/internal/tickets/loader"
)

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type alertGroup struct {
	Name  string      `yaml:"name"`
	Rules []alertRule `yaml:"rules"`
}

type alertSpec struct {
	Groups []alertGroup `yaml:"groups"`
}

var (
	metricRef  = regexp.MustCompile(`ticketdash_[a-z_]+`)
	descFQName = regexp.MustCompile(`fqName: "([^"]+)"`)
)

// descRecorder collects the metric names of every collector registered
// against it.
type descRecorder struct {
	names map[string]bool
}

func (r *descRecorder) Register(c prometheus.Collector) error {
	ch := make(chan *prometheus.Desc, 16)
	go func() {
		c.Describe(ch)
		close(ch)
	}()
	for desc := range ch {
		if m := descFQName.FindStringSubmatch(desc.String()); m != nil {
			r.names[m[1]] = true
		}
	}
	return nil
}

func (r *descRecorder) MustRegister(cs ...prometheus.Collector) {
	for _, c := range cs {
		_ = r.Register(c)
	}
}

func (r *descRecorder) Unregister(prometheus.Collector) bool { return false }

func loadAlertSpec(t *testing.T) alertSpec {
	t.Helper()
	path := filepath.Join("..", "..", "deploy", "prometheus", "alerts", "ticketdash.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read alert file: %v", err)
	}
	var spec alertSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		t.Fatalf("failed to unmarshal alert file: %v", err)
	}
	return spec
}

func TestAlertRulesReferenceExportedMetrics(t *testing.T) {
	rec := &descRecorder{names: map[string]bool{}}
	m := NewMetrics()
	rec.MustRegister(m.requestsTotal, m.requestDuration, m.responseSize, m.inFlight)
	loader.NewMetrics(rec)
	jobmetrics.NewMetrics(rec)

	for _, group := range loadAlertSpec(t).Groups {
		for _, rule := range group.Rules {
			for _, ref := range metricRef.FindAllString(rule.Expr, -1) {
				name := ref
				for _, suffix := range []string{"_bucket", "_sum", "_count"} {
					if trimmed, ok := strings.CutSuffix(ref, suffix); ok && rec.names[trimmed] {
						name = trimmed
					}
				}
				if !rec.names[name] {
					t.Fatalf("rule %s references unknown metric %s", rule.Alert, ref)
				}
			}
		}
	}
}

func TestDashboardAlertRules(t *testing.T) {
	spec := loadAlertSpec(t)

	if len(spec.Groups) == 0 {
		t.Fatal("expected at least one alert group")
	}

	var dashGroup *alertGroup
	for i := range spec.Groups {
		if spec.Groups[i].Name == "ticketdash" {
			dashGroup = &spec.Groups[i]
			break
		}
	}
	if dashGroup == nil {
		t.Fatal("ticketdash alert group missing")
	}

	expected := map[string]struct {
		severity string
		runbook  string
	}{
		"HighErrorRate":       {severity: "critical", runbook: "docs/runbook.md#high-error-rate"},
		"HighLatency":         {severity: "warning", runbook: "docs/runbook.md#high-latency"},
		"DatasetLoadFailures": {severity: "critical", runbook: "docs/runbook.md#dataset-load-failures"},
		"WarmupJobFailing":    {severity: "warning", runbook: "docs/runbook.md#warmup-job-failing"},
	}

	if len(dashGroup.Rules) != len(expected) {
		t.Fatalf("expected %d rules, got %d", len(expected), len(dashGroup.Rules))
	}

	for _, rule := range dashGroup.Rules {
		want, ok := expected[rule.Alert]
		if !ok {
			t.Fatalf("unexpected rule %q", rule.Alert)
		}
		if rule.Labels["severity"] != want.severity {
			t.Fatalf("rule %s severity mismatch: %s", rule.Alert, rule.Labels["severity"])
		}
		if rule.Annotations["runbook"] != want.runbook {
			t.Fatalf("rule %s runbook mismatch: %s", rule.Alert, rule.Annotations["runbook"])
		}
		if rule.Annotations["summary"] == "" || rule.Annotations["description"] == "" {
			t.Fatalf("rule %s must include summary and description annotations", rule.Alert)
		}
		if rule.Expr == "" {
			t.Fatalf("rule %s must define an expression", rule.Alert)
		}
		if rule.For == "" {
			t.Fatalf("rule %s must define a hold duration", rule.Alert)
		}
	}
}
