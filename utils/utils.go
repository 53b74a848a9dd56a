package utils

// AddInts adds src into dst element wise. dst must be at least as long as src.
func AddInts(dst, src []int) {
	if len(src) > len(dst) {
		panic("AddInts: src longer than dst")
	}
	for i, val := range src {
		dst[i] += val
	}
}

func SumSliceInt(values []int) int {
	result := 0
	for _, val := range values {
		result += val
	}
	return result
}

//Returns number of non zero entries
func CountNonZero(values []int) int {
	count := 0
	for _, val := range values {
		if val != 0 {
			count++
		}
	}
	return count
}
