package gameserver

import (
	_ "embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/protobuf/types/known/structpb"
)

//go:embed schemas/transaction.schema.json
var transactionSchemaSrc string

var transactionSchema = jsonschema.MustCompileString("transaction.schema.json", transactionSchemaSrc)

// validateTransaction checks a wire transaction before it is decoded.
func validateTransaction(in *structpb.Struct) error {
	if err := transactionSchema.Validate(in.AsMap()); err != nil {
		return fmt.Errorf("gameserver: invalid transaction: %w", err)
	}
	return nil
}
