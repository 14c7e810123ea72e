package bloom

import (
	"fmt"
	"sync"
	"testing"
)

func TestTestAndAdd(t *testing.T) {
	f := New(1<<16, 4)

	key := []byte("user-1:request_approved:42")
	if f.TestAndAdd(key) {
		t.Fatal("first TestAndAdd should report absent")
	}
	if !f.TestAndAdd(key) {
		t.Fatal("second TestAndAdd should report present")
	}
}

func TestNoFalseNegatives(t *testing.T) {
	f := New(1<<18, 4)

	for i := 0; i < 1000; i++ {
		f.Add([]byte(fmt.Sprintf("key-%d", i)))
	}
	for i := 0; i < 1000; i++ {
		if !f.Test([]byte(fmt.Sprintf("key-%d", i))) {
			t.Fatalf("key-%d reported absent after Add", i)
		}
	}
}

func TestLowFalsePositiveRate(t *testing.T) {
	f := New(1<<20, 4)

	for i := 0; i < 10000; i++ {
		f.Add([]byte(fmt.Sprintf("member-%d", i)))
	}

	falsePositives := 0
	const probes = 10000
	for i := 0; i < probes; i++ {
		if f.Test([]byte(fmt.Sprintf("absent-%d", i))) {
			falsePositives++
		}
	}

	// 1<<20 位、1 万条记录、4 个哈希，误判率应远低于 1%
	if falsePositives > probes/100 {
		t.Fatalf("false positive rate too high: %d/%d", falsePositives, probes)
	}
}

func TestConcurrentAccess(t *testing.T) {
	f := New(1<<16, 4)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				f.TestAndAdd([]byte(fmt.Sprintf("g%d-key-%d", g, i)))
			}
		}(g)
	}
	wg.Wait()

	for g := 0; g < 8; g++ {
		for i := 0; i < 500; i++ {
			if !f.Test([]byte(fmt.Sprintf("g%d-key-%d", g, i))) {
				t.Fatalf("g%d-key-%d reported absent after concurrent adds", g, i)
			}
		}
	}
}

func TestZeroValuesUseDefaults(t *testing.T) {
	f := New(0, 0)
	if f.m != 1<<20 {
		t.Fatalf("expected default size 1<<20, got %d", f.m)
	}
	if f.k != 4 {
		t.Fatalf("expected default hash count 4, got %d", f.k)
	}
}
