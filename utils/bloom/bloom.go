package bloom

import (
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/twmb/murmur3"
)

// Filter 进程内布隆过滤器，用于通知去重
// 采用双哈希法: h_i = h1 + i*h2，避免多次计算哈希
type Filter struct {
	mu   sync.Mutex
	bits *bitset.BitSet
	m    uint // 位数组大小
	k    int  // 哈希函数个数
}

// New 创建布隆过滤器
// m: 位数组大小（建议为 2 的幂），k: 哈希函数个数
func New(m uint, k int) *Filter {
	if m == 0 {
		m = 1 << 20
	}
	if k <= 0 {
		k = 4
	}
	return &Filter{
		bits: bitset.New(m),
		m:    m,
		k:    k,
	}
}

// locations 计算 data 对应的 k 个位下标
func (f *Filter) locations(data []byte) []uint {
	h1, h2 := murmur3.Sum128(data)
	locs := make([]uint, f.k)
	for i := 0; i < f.k; i++ {
		locs[i] = uint(h1+uint64(i)*h2) % f.m
	}
	return locs
}

// Test 判断 data 是否可能已存在（存在误判率，不存在则一定准确）
func (f *Filter) Test(data []byte) bool {
	locs := f.locations(data)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, loc := range locs {
		if !f.bits.Test(loc) {
			return false
		}
	}
	return true
}

// Add 将 data 加入过滤器
func (f *Filter) Add(data []byte) {
	locs := f.locations(data)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, loc := range locs {
		f.bits.Set(loc)
	}
}

// TestAndAdd 判断 data 是否已存在，并将其加入过滤器
// 返回 true 表示 data 可能已存在
func (f *Filter) TestAndAdd(data []byte) bool {
	locs := f.locations(data)
	f.mu.Lock()
	defer f.mu.Unlock()
	present := true
	for _, loc := range locs {
		if !f.bits.Test(loc) {
			present = false
			f.bits.Set(loc)
		}
	}
	return present
}
