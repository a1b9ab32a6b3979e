package court

import (
	"strings"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/types/ids"
)

const (
	rolePlaintiff = "plaintiff"
	roleDefendant = "defendant"
)

// PartyHash is the short digest that stands in for a party's name.
func PartyHash(name, role string) string {
	return ids.HashHex([]byte(name + "_" + role))[:16]
}

// PlaintiffAlias and DefendantAlias are the names recorded on the ledger.
func PlaintiffAlias(name string) string { return "Demandante_" + PartyHash(name, rolePlaintiff) }

func DefendantAlias(name string) string { return "Demandado_" + PartyHash(name, roleDefendant) }

// JudgeID derives the directory key for a judge.
func JudgeID(name, specialty string) string {
	digest := ids.HashHex([]byte(name + "_" + specialty))[:16]
	return "Juez_" + strings.ReplaceAll(name, " ", "_") + "_" + digest
}
