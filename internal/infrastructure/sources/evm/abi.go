package evm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Uniswap V3 pool ABI (only observe).
const poolABIJSON = `[{
	"inputs": [
		{"internalType": "uint32[]", "name": "secondsAgos", "type": "uint32[]"}
	],
	"name": "observe",
	"outputs": [
		{"internalType": "int56[]", "name": "tickCumulatives", "type": "int56[]"},
		{"internalType": "uint160[]", "name": "secondsPerLiquidityCumulativeX128s", "type": "uint160[]"}
	],
	"stateMutability": "view",
	"type": "function"
}]`

// Chainlink aggregator ABI (only latestRoundData).
const aggregatorABIJSON = `[{
	"inputs": [],
	"name": "latestRoundData",
	"outputs": [
		{"internalType": "uint80", "name": "roundId", "type": "uint80"},
		{"internalType": "int256", "name": "answer", "type": "int256"},
		{"internalType": "uint256", "name": "startedAt", "type": "uint256"},
		{"internalType": "uint256", "name": "updatedAt", "type": "uint256"},
		{"internalType": "uint80", "name": "answeredInRound", "type": "uint80"}
	],
	"stateMutability": "view",
	"type": "function"
}]`

var (
	poolABI       = mustParseABI(poolABIJSON)
	aggregatorABI = mustParseABI(aggregatorABIJSON)
)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("invalid contract ABI: %v", err))
	}
	return parsed
}
