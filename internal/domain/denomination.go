package domain

import (
	"encoding/json"
	"strconv"
)

// Denomination sets for ARS. Face values are whole pesos, the smallest unit
// printed on notes and coins; amounts elsewhere are centavos.
const (
	Bill20000 = iota
	Bill10000
	Bill2000
	Bill1000
	Bill500
	Bill200
	Bill100
	Bill50
	Bill20
	Bill10
	NumBills
)

const (
	Coin10 = iota
	Coin5
	Coin2
	Coin1
	NumCoins
)

var BillFaceValues = [NumBills]int64{20000, 10000, 2000, 1000, 500, 200, 100, 50, 20, 10}

var CoinFaceValues = [NumCoins]int64{10, 5, 2, 1}

const CentsPerUnit = 100

type BillCounts [NumBills]int

type CoinCounts [NumCoins]int

func (b BillCounts) MarshalJSON() ([]byte, error) {
	return json.Marshal(countsToMap(b[:], BillFaceValues[:]))
}

func (b *BillCounts) UnmarshalJSON(data []byte) error {
	return mapToCounts(data, b[:], BillFaceValues[:])
}

func (c CoinCounts) MarshalJSON() ([]byte, error) {
	return json.Marshal(countsToMap(c[:], CoinFaceValues[:]))
}

func (c *CoinCounts) UnmarshalJSON(data []byte) error {
	return mapToCounts(data, c[:], CoinFaceValues[:])
}

func (b BillCounts) HasNegative() bool { return hasNegative(b[:]) }

func (c CoinCounts) HasNegative() bool { return hasNegative(c[:]) }

func countsToMap(counts []int, faces []int64) map[string]int {
	out := make(map[string]int, len(counts))
	for i, n := range counts {
		if n == 0 {
			continue
		}
		out[strconv.FormatInt(faces[i], 10)] = n
	}
	return out
}

// mapToCounts reads a {"<face value>": count} object. Keys that are not a
// recognized face value are ignored.
func mapToCounts(data []byte, counts []int, faces []int64) error {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for i := range counts {
		counts[i] = 0
	}
	for key, n := range raw {
		face, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		for i, f := range faces {
			if f == face {
				counts[i] = n
				break
			}
		}
	}
	return nil
}

func hasNegative(counts []int) bool {
	for _, n := range counts {
		if n < 0 {
			return true
		}
	}
	return false
}
