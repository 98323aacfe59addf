package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

var textProperty = map[string]interface{}{
	"type":        "string",
	"description": "Text as reconstructed from a photo, lines separated by newlines",
}

var targetProperty = map[string]interface{}{
	"type":        "string",
	"enum":        []string{"en", "fr", "de", "it"},
	"description": "Target language code or name (English, French, Deutsch, Italian). Default en",
}

var yThresholdProperty = map[string]interface{}{
	"type":        "number",
	"description": "Maximum vertical distance in pixels for two fragments to share a line. Default 20",
	"default":     20,
}

func integerProperty(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": desc,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image
		{
			Name:        "image_load",
			Description: "Load a photo and return its dimensions, mean lightness and whether it has a dark background that will be inverted before OCR.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_crop",
			Description: "Crop a rectangular region from a photo and return it as base64-encoded PNG. Use this to zoom into a sign before OCR.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"x1":   integerProperty("Left edge X coordinate (0-based)"),
					"y1":   integerProperty("Top edge Y coordinate (0-based)"),
					"x2":   integerProperty("Right edge X coordinate (exclusive)"),
					"y2":   integerProperty("Bottom edge Y coordinate (exclusive)"),
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},

		// Text
		{
			Name:        "text_ocr_fragments",
			Description: "Run OCR on a photo and return the recognized words as fragments with bounding quadrilaterals. Optionally restrict to a region.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"region": map[string]interface{}{
						"type":        "object",
						"description": "Optional region {x1, y1, x2, y2}. Fragment coordinates stay in full-image space",
						"properties": map[string]interface{}{
							"x1": map[string]interface{}{"type": "integer"},
							"y1": map[string]interface{}{"type": "integer"},
							"x2": map[string]interface{}{"type": "integer"},
							"y2": map[string]interface{}{"type": "integer"},
						},
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "text_reconstruct",
			Description: "Rebuild reading-order text from OCR fragments: fragments are grouped into lines by vertical proximity, lines ordered top to bottom and words left to right.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"fragments": map[string]interface{}{
						"type":        "array",
						"description": "Fragments as {region: [{x,y} x4], text, confidence}. Region[0] is the top-left corner",
						"items": map[string]interface{}{
							"type": "object",
						},
					},
					"y_threshold": yThresholdProperty,
				},
				"required": []string{"fragments"},
			},
		},
		{
			Name:        "text_detect_language",
			Description: "Detect the language of a text and report whether it is Portuguese.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": textProperty,
				},
				"required": []string{"text"},
			},
		},
		{
			Name:        "text_translate",
			Description: "Translate a text line by line into English, French, German or Italian.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text":   textProperty,
					"target": targetProperty,
					"source": map[string]interface{}{
						"type":        "string",
						"description": "Source language code. Default auto",
						"default":     "auto",
					},
				},
				"required": []string{"text"},
			},
		},

		// Location
		{
			Name:        "address_detect",
			Description: "Report whether a text looks like a Portuguese street address (rua, avenida, praça, largo, número, travessa).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": textProperty,
				},
				"required": []string{"text"},
			},
		},
		{
			Name:        "address_geocode",
			Description: "Look up the coordinates of an address in Porto. Falls back to the city centre when the address cannot be found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Address text; the city suffix is appended automatically",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "landmarks_nearby",
			Description: "List the Porto landmarks nearest to a coordinate, with distances in kilometres and map links.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"lat": map[string]interface{}{
						"type":        "number",
						"description": "Latitude in degrees",
					},
					"lon": map[string]interface{}{
						"type":        "number",
						"description": "Longitude in degrees",
					},
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of landmarks. Default 3",
						"default":     3,
					},
				},
				"required": []string{"lat", "lon"},
			},
		},

		// Pipeline
		{
			Name:        "guide_scan",
			Description: "Full tourist pipeline on a photo: OCR, reading-order reconstruction, language check, translation and, for street addresses, nearby landmark recommendations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty,
					"target":      targetProperty,
					"y_threshold": yThresholdProperty,
					"skip_translation": map[string]interface{}{
						"type":        "boolean",
						"description": "Skip the translation step",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
	}
}
