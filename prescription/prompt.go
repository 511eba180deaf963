package prescription

import (
	"github.com/giygas/prescriptions-api/interfaces"
)

const systemPrompt = `You are a helpful assistant that generates prescriptions from a doctor's clinical notes.
Always return the prescription as a single JSON object in the following format and nothing else.
Warn the doctor in Description if you suspect any drug conflicts.
If any information is missing, use null as the value for that field.
{
  "Prescriptions": [
    {
      "DiagnosisInformation": {
        "Diagnosis": "<diagnosis>",
        "Medicine": "<medicine>"
      },
      "MedicationDetails": {
        "Dose": "<dose>",
        "DoseUnit": "<dose unit>",
        "DoseRoute": "<dose route>",
        "Frequency": "<frequency>",
        "FrequencyDuration": "<frequency duration>",
        "FrequencyUnit": "<frequency unit>",
        "Quantity": "<quantity>",
        "QuantityUnit": "<quantity unit>",
        "Refill": "<refill>",
        "Pharmacy": "<pharmacy>"
      },
      "Description": "<description>"
    }
  ]
}`

// SystemPrompt returns the instruction describing the document schema
func SystemPrompt() string {
	return systemPrompt
}

// buildRequest assembles a fresh generation request for one note. Nothing is
// carried over between requests.
func buildRequest(note string, opts Options) interfaces.GenerationRequest {
	return interfaces.GenerationRequest{
		SystemPrompt: systemPrompt,
		UserText:     note,
		Temperature:  opts.Temperature,
		MaxTokens:    opts.MaxTokens,
	}
}
