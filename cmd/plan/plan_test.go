package plan

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/frain-dev/pgtime/datastore"
	"github.com/frain-dev/pgtime/pkg/partition"
)

func TestPrintPlan(t *testing.T) {
	day100 := time.Date(2000, 4, 10, 0, 0, 0, 0, time.UTC)
	policy := datastore.TablePolicy{
		TableID:           "public.metrics",
		TimeColumn:        "ts",
		PartitionInterval: 24 * time.Hour,
		RetentionInterval: 7 * 24 * time.Hour,
	}

	old := datastore.PartitionWindow{
		TableID: "public.metrics",
		Start:   day100.Add(-30 * 24 * time.Hour),
		End:     day100.Add(-29 * 24 * time.Hour),
		State:   datastore.PresentWindow,
	}

	p := partition.NewEngine(partition.Options{}).Plan(policy, day100, []datastore.PartitionWindow{old})

	var buf bytes.Buffer
	printPlan(&buf, p)
	out := buf.String()

	require.Equal(t, 2, strings.Count(out, "create"))
	require.Equal(t, 1, strings.Count(out, "retire"))
	require.Contains(t, out, "metrics_p20000410_000000")
	require.Contains(t, out, "metrics_p20000311_000000")
}
