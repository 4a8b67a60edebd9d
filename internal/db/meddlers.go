package db

import (
	"database/sql"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/russross/meddler"
)

func init() {
	meddler.Default = meddler.SQLite

	meddler.Register("hash", HashMeddler{})
	meddler.Register("address", AddressMeddler{})
	meddler.Register("bigint", BigIntMeddler{})
}

// nullableText scans every custom column through sql.NullString so NULLs map to zero values.
type nullableText struct{}

func (nullableText) PreRead(fieldAddr interface{}) (interface{}, error) {
	return new(sql.NullString), nil
}

func scannedString(scanTarget interface{}) (sql.NullString, error) {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return sql.NullString{}, fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}
	return *ns, nil
}

// HashMeddler stores common.Hash (or *common.Hash) as a 0x-prefixed hex string.
type HashMeddler struct{ nullableText }

func (HashMeddler) PostRead(fieldAddr, scanTarget interface{}) error {
	ns, err := scannedString(scanTarget)
	if err != nil {
		return err
	}

	switch ptr := fieldAddr.(type) {
	case *common.Hash:
		*ptr = common.Hash{}
		if ns.Valid {
			*ptr = common.HexToHash(ns.String)
		}
	case **common.Hash:
		*ptr = nil
		if ns.Valid {
			hash := common.HexToHash(ns.String)
			*ptr = &hash
		}
	default:
		return fmt.Errorf("expected *common.Hash or **common.Hash, got %T", fieldAddr)
	}

	return nil
}

func (HashMeddler) PreWrite(field interface{}) (interface{}, error) {
	switch value := field.(type) {
	case common.Hash:
		return value.Hex(), nil
	case *common.Hash:
		if value == nil {
			return nil, nil
		}
		return value.Hex(), nil
	default:
		return nil, fmt.Errorf("expected common.Hash or *common.Hash, got %T", field)
	}
}

// AddressMeddler stores common.Address (or *common.Address) as a checksummed hex string.
type AddressMeddler struct{ nullableText }

func (AddressMeddler) PostRead(fieldAddr, scanTarget interface{}) error {
	ns, err := scannedString(scanTarget)
	if err != nil {
		return err
	}

	switch ptr := fieldAddr.(type) {
	case *common.Address:
		*ptr = common.Address{}
		if ns.Valid {
			*ptr = common.HexToAddress(ns.String)
		}
	case **common.Address:
		*ptr = nil
		if ns.Valid {
			addr := common.HexToAddress(ns.String)
			*ptr = &addr
		}
	default:
		return fmt.Errorf("expected *common.Address or **common.Address, got %T", fieldAddr)
	}

	return nil
}

func (AddressMeddler) PreWrite(field interface{}) (interface{}, error) {
	switch value := field.(type) {
	case common.Address:
		return value.Hex(), nil
	case *common.Address:
		if value == nil {
			return nil, nil
		}
		return value.Hex(), nil
	default:
		return nil, fmt.Errorf("expected common.Address or *common.Address, got %T", field)
	}
}

// BigIntMeddler stores *big.Int as a base-10 string. uint256 amounts overflow INTEGER columns.
type BigIntMeddler struct{ nullableText }

func (BigIntMeddler) PostRead(fieldAddr, scanTarget interface{}) error {
	ns, err := scannedString(scanTarget)
	if err != nil {
		return err
	}

	ptr, ok := fieldAddr.(**big.Int)
	if !ok {
		return fmt.Errorf("expected **big.Int, got %T", fieldAddr)
	}

	if !ns.Valid {
		*ptr = nil
		return nil
	}

	value, ok := new(big.Int).SetString(ns.String, 10)
	if !ok {
		return fmt.Errorf("invalid decimal amount %q", ns.String)
	}
	*ptr = value

	return nil
}

func (BigIntMeddler) PreWrite(field interface{}) (interface{}, error) {
	value, ok := field.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("expected *big.Int, got %T", field)
	}
	if value == nil {
		return nil, nil
	}
	return value.String(), nil
}
