// Package test helpers shared by package tests and benchmarks
package test

import (
	"runtime"
	"testing"
)

const mib = 1024 * 1024

// ReportMemory adds heap statistics to the benchmark result.
func ReportMemory(b *testing.B) runtime.MemStats {
	b.Helper()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	b.ReportMetric(float64(m.HeapAlloc)/mib, "heap-MiB")
	b.ReportMetric(float64(m.NumGC), "gc")
	b.Logf("alloc=%dMiB total=%dMiB sys=%dMiB mallocs=%d frees=%d",
		m.Alloc/mib, m.TotalAlloc/mib, m.Sys/mib, m.Mallocs, m.Frees)

	return m
}
