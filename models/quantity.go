package models

import (
	"encoding/json"
	"math"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// Quantity is a float64 that never fails to decode. Historic documents
// carry quantities as doubles, ints and occasionally strings; anything
// unparseable (and NaN/Inf) becomes 0 so ledger totals stay finite.
type Quantity float64

// Value returns the quantity as a plain float64 with NaN/Inf flattened to 0.
func (q Quantity) Value() float64 {
	f := float64(q)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*q = coerce(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*q = 0
			return nil
		}
		*q = coerce(f)
		return nil
	}
	*q = 0
	return nil
}

func (q *Quantity) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Double:
		if f, _, ok := bsoncore.ReadDouble(data); ok {
			*q = coerce(f)
			return nil
		}
	case bsontype.Int32:
		if i, _, ok := bsoncore.ReadInt32(data); ok {
			*q = Quantity(i)
			return nil
		}
	case bsontype.Int64:
		if i, _, ok := bsoncore.ReadInt64(data); ok {
			*q = Quantity(i)
			return nil
		}
	case bsontype.String:
		if s, _, ok := bsoncore.ReadString(data); ok {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				*q = coerce(f)
				return nil
			}
		}
	}
	*q = 0
	return nil
}

func coerce(f float64) Quantity {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return Quantity(f)
}
