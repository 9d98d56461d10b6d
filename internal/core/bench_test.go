package core

import (
	"fmt"
	"testing"
)

func benchmarkBroadcast(b *testing.B, sessions int) {
	registry := NewRegistry(testLogger)

	targets := make([]*Session, 0, sessions)
	for i := range sessions {
		targets = append(targets, activeSession(registry, fmt.Sprintf("s%d", i), "alice"))
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		registry.Broadcast("alice", EventNewMessage, i)
		for _, s := range targets {
			<-s.Events()
		}
	}
}

func BenchmarkBroadcast1(b *testing.B) {
	benchmarkBroadcast(b, 1)
}

func BenchmarkBroadcast10(b *testing.B) {
	benchmarkBroadcast(b, 10)
}

func BenchmarkBroadcast100(b *testing.B) {
	benchmarkBroadcast(b, 100)
}
