package registry

import "math/bits"

// Битовая нумерация совпадает с постгресовой set_bit/get_bit: бит i живёт в
// байте i/8 и считается от младшего разряда. Memory- и postgres-бэкенды
// разделяют эти хелперы; redis считает биты на своей стороне.

func bitmapLen(totalChunks int) int {
	return (totalChunks + 7) / 8
}

func testBit(b []byte, i int) bool {
	return b[i/8]&(1<<uint(i%8)) != 0
}

func setBit(b []byte, i int) {
	b[i/8] |= 1 << uint(i%8)
}

func countBits(b []byte) int {
	n := 0
	for _, v := range b {
		n += bits.OnesCount8(v)
	}
	return n
}

// firstMissing возвращает наименьший неустановленный индекс из [0, total) или -1.
func firstMissing(b []byte, total int) int {
	for i := 0; i < total; i++ {
		if !testBit(b, i) {
			return i
		}
	}
	return -1
}
