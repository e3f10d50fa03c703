package test

import (
	"net"
	"os"
	"strconv"
	"testing"
)

const QdrantAddrEnv = "RAGMEM_QDRANT_ADDR"

// GetQdrantAddr returns the gRPC host and port of a running qdrant, or skips
// the test when RAGMEM_QDRANT_ADDR is not set.
func GetQdrantAddr(t *testing.T) (string, int) {
	t.Helper()
	addr := os.Getenv(QdrantAddrEnv)
	if addr == "" {
		t.Skipf("%s not set, skipping qdrant test", QdrantAddrEnv)
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("invalid %s %q: %v", QdrantAddrEnv, addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("invalid port in %s: %v", QdrantAddrEnv, err)
	}
	return host, port
}
