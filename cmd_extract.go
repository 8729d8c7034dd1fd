package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aashish23092/doc-field-extraction/dto"
)

var extractRaw bool

type rawOutput struct {
	RequestID string             `json:"request_id"`
	Fields    dto.OrderedFields  `json:"fields"`
	Failed    []dto.FieldFailure `json:"failed_fields,omitempty"`
	Raw       []dto.RawAnswer    `json:"raw_answers"`
}

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract fields from one PDF or image and print them as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline()
		if err != nil {
			return err
		}
		defer p.Close()

		result, err := p.extractor.Extract(cmd.Context(), &dto.ExtractionRequest{Path: args[0]})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if extractRaw {
			return enc.Encode(rawOutput{
				RequestID: result.RequestID,
				Fields:    result.Entries,
				Failed:    result.Failed,
				Raw:       result.Raw,
			})
		}
		return enc.Encode(result)
	},
}

func init() {
	extractCmd.Flags().BoolVar(&extractRaw, "raw", false, "print request id, failed fields and the unnormalized model answers alongside the fields")
}
