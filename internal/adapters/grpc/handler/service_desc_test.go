package handler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReportServiceDesc_MatchesProtoDefinition(t *testing.T) {
	t.Parallel()

	if ReportServiceDesc.ServiceName != ReportServiceName {
		t.Fatalf("unexpected service name: %s", ReportServiceDesc.ServiceName)
	}

	raw, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "proto", ReportServiceDesc.Metadata.(string)))
	if err != nil {
		t.Fatalf("failed to read proto referenced by metadata: %v", err)
	}
	def := string(raw)

	if !strings.Contains(def, "package istakip.report.v1;") || !strings.Contains(def, "service ReportService {") {
		t.Fatalf("proto does not declare %s", ReportServiceName)
	}
	for _, m := range ReportServiceDesc.Methods {
		want := "rpc " + m.MethodName + "(google.protobuf.Struct) returns (google.protobuf.Struct);"
		if !strings.Contains(def, want) {
			t.Fatalf("proto is missing %q", want)
		}
	}
}
