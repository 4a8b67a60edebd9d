// Package decodertest builds raw protocol logs for tests.
package decodertest

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/goran-ethernal/ModerationIndexor/pkg/config"
)

var (
	RegistryAddress = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	GameAddress     = common.HexToAddress("0x00000000000000000000000000000000000000c2")
	VaultAddress    = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	RewardsAddress  = common.HexToAddress("0x00000000000000000000000000000000000000c4")
)

// Contracts returns a contract configuration using the test addresses.
func Contracts() config.ContractsConfig {
	return config.ContractsConfig{
		ContentRegistry: config.ContractConfig{Address: RegistryAddress.Hex()},
		ModerationGame:  config.ContractConfig{Address: GameAddress.Hex()},
		StakingVault:    config.ContractConfig{Address: VaultAddress.Hex()},
		StakingRewards:  config.ContractConfig{Address: RewardsAddress.Hex()},
	}
}

// Pos is the position of a log on chain.
type Pos struct {
	Block uint64
	Index uint
}

// At returns a position in block at the given log index.
func At(block uint64, index uint) Pos {
	return Pos{Block: block, Index: index}
}

// TxHash derives a deterministic transaction hash for the position.
func (p Pos) TxHash() common.Hash {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], p.Block)
	binary.BigEndian.PutUint64(buf[8:], uint64(p.Index))
	return crypto.Keccak256Hash(buf[:])
}

// Topic returns the topic0 of an event signature.
func Topic(signature string) common.Hash {
	return crypto.Keccak256Hash([]byte(signature))
}

const (
	SigContentPublished   = "ContentPublished(uint256,address,bytes32,uint256,uint256,uint256)"
	SigContentChallenged  = "ContentChallenged(uint256,address,uint8,string,uint256)"
	SigChallengeResolved  = "ChallengeResolved(uint256,bool,uint256)"
	SigDisputeInitialized = "DisputeInitialized(uint256,uint256,address)"
	SigDisputeResolved    = "DisputeResolved(uint256,bool,uint256,uint256)"
	SigDeposited          = "Deposited(address,uint256)"
	SigWithdrawn          = "Withdrawn(address,uint256)"
	SigSlashed            = "Slashed(address,uint256,uint8)"
	SigRewardClaimed      = "RewardClaimed(address,uint256)"
)

// Raw builds a log with the given address, topics and data at pos.
func Raw(addr common.Address, pos Pos, topics []common.Hash, data []byte) types.Log {
	return types.Log{
		Address:     addr,
		Topics:      topics,
		Data:        data,
		BlockNumber: pos.Block,
		TxHash:      pos.TxHash(),
		TxIndex:     pos.Index,
		BlockHash:   crypto.Keccak256Hash(new(big.Int).SetUint64(pos.Block).Bytes()),
		Index:       pos.Index,
	}
}

func ContentPublished(pos Pos, contentID uint64, author common.Address, hash common.Hash,
	bond int64, publishedAt, lockUntil uint64) types.Log {
	return Raw(RegistryAddress, pos,
		[]common.Hash{Topic(SigContentPublished), idTopic(contentID), addrTopic(author)},
		pack([]string{"bytes32", "uint256", "uint256", "uint256"},
			[32]byte(hash), big.NewInt(bond), u256(publishedAt), u256(lockUntil)),
	)
}

func ContentChallenged(pos Pos, contentID uint64, challenger common.Address, reason uint8,
	evidence string, bond int64) types.Log {
	return Raw(RegistryAddress, pos,
		[]common.Hash{Topic(SigContentChallenged), idTopic(contentID), addrTopic(challenger)},
		pack([]string{"uint8", "string", "uint256"}, reason, evidence, big.NewInt(bond)),
	)
}

func ChallengeResolved(pos Pos, contentID uint64, guilty bool, slashed int64) types.Log {
	return Raw(RegistryAddress, pos,
		[]common.Hash{Topic(SigChallengeResolved), idTopic(contentID)},
		pack([]string{"bool", "uint256"}, guilty, big.NewInt(slashed)),
	)
}

func DisputeInitialized(pos Pos, disputeID, contentID uint64, challenger common.Address) types.Log {
	return Raw(GameAddress, pos,
		[]common.Hash{Topic(SigDisputeInitialized), idTopic(disputeID), idTopic(contentID), addrTopic(challenger)},
		nil,
	)
}

func DisputeResolved(pos Pos, disputeID uint64, guilty bool, guiltyVotes, notGuiltyVotes int64) types.Log {
	return Raw(GameAddress, pos,
		[]common.Hash{Topic(SigDisputeResolved), idTopic(disputeID)},
		pack([]string{"bool", "uint256", "uint256"}, guilty, big.NewInt(guiltyVotes), big.NewInt(notGuiltyVotes)),
	)
}

func Deposited(pos Pos, user common.Address, amount int64) types.Log {
	return stakeLog(VaultAddress, SigDeposited, pos, user, amount)
}

func Withdrawn(pos Pos, user common.Address, amount int64) types.Log {
	return stakeLog(VaultAddress, SigWithdrawn, pos, user, amount)
}

func Slashed(pos Pos, user common.Address, amount int64, reason uint8) types.Log {
	return Raw(VaultAddress, pos,
		[]common.Hash{Topic(SigSlashed), addrTopic(user)},
		pack([]string{"uint256", "uint8"}, big.NewInt(amount), reason),
	)
}

func RewardClaimed(pos Pos, user common.Address, amount int64) types.Log {
	return stakeLog(RewardsAddress, SigRewardClaimed, pos, user, amount)
}

func stakeLog(addr common.Address, sig string, pos Pos, user common.Address, amount int64) types.Log {
	return Raw(addr, pos,
		[]common.Hash{Topic(sig), addrTopic(user)},
		pack([]string{"uint256"}, big.NewInt(amount)),
	)
}

func idTopic(id uint64) common.Hash {
	return common.BigToHash(u256(id))
}

func addrTopic(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func u256(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

func pack(typeNames []string, values ...interface{}) []byte {
	args := make(abi.Arguments, len(typeNames))
	for i, name := range typeNames {
		typ, err := abi.NewType(name, "", nil)
		if err != nil {
			panic(err)
		}
		args[i] = abi.Argument{Type: typ}
	}

	data, err := args.Pack(values...)
	if err != nil {
		panic(err)
	}
	return data
}
