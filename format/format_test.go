package format

import "testing"

type runConfig struct {
	Cores   int
	Cluster bool
	Cache   string
}

func TestStructFieldsFlattensExportedFields(t *testing.T) {
	fields := StructFields(runConfig{Cores: 4, Cluster: false, Cache: "read-write"})
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	if fields[0].Key != "Cores" || fields[0].Value != "4" {
		t.Errorf("unexpected first field: %+v", fields[0])
	}
}

func TestTableAlignsColumns(t *testing.T) {
	fields := []Field{
		{Key: "Cores", Value: "4"},
		{Key: "Cluster", Value: "false"},
	}
	got := Table(fields)
	want := "Cores    4\nCluster  false"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestTableEmpty(t *testing.T) {
	if got := Table(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
