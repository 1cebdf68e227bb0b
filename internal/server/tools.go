package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// sessionIDProperty is the schema fragment shared by every tool that
// addresses an open presentation.
func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session id returned by ppt_open",
	}
}

// locationItems is the schema for a slide/shape location list.
func locationItems() map[string]interface{} {
	return map[string]interface{}{
		"type": "array",
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"slide_number": map[string]interface{}{
					"type":        "integer",
					"description": "1-based slide number",
				},
				"shape_name": map[string]interface{}{
					"type":        "string",
					"description": "Shape name as reported by ppt_analyze_fonts",
				},
			},
			"required": []string{"slide_number", "shape_name"},
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Session Lifecycle
		{
			Name:        "ppt_open",
			Description: "Open a .pptx presentation and return a session id for subsequent operations. Each open creates an independent session.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"file_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the .pptx file",
					},
				},
				"required": []string{"file_path"},
			},
		},
		{
			Name:        "ppt_close",
			Description: "Close a session and release its in-memory presentation.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "ppt_deck_info",
			Description: "Get presentation metadata: slide count, hidden slides, canvas size, embedded media count, title and author.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
				},
				"required": []string{"session_id"},
			},
		},

		// Font Analysis and Repair
		{
			Name:        "ppt_analyze_fonts",
			Description: "Classify every font in the deck as used, unused, or inconsistently used, and list the slide/shape locations of empty or off-canvas text boxes and of inconsistent font usage. Run this before any replace or update operation.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "ppt_replace_font",
			Description: "Rewrite every text run using one font to use another. The replacement font must be visibly in use per a fresh ppt_analyze_fonts run.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
					"from_font": map[string]interface{}{
						"type":        "string",
						"description": "Font name to replace (case-insensitive match)",
					},
					"to_font": map[string]interface{}{
						"type":        "string",
						"description": "Replacement font; must be visibly used in the deck",
					},
				},
				"required": []string{"session_id", "from_font", "to_font"},
			},
		},
		{
			Name:        "ppt_remove_shapes",
			Description: "Remove shapes by slide number and shape name, typically the unused-font locations reported by ppt_analyze_fonts. Locations that no longer exist are skipped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
					"locations":  locationItems(),
				},
				"required": []string{"session_id", "locations"},
			},
		},
		{
			Name:        "ppt_save",
			Description: "Save the presentation. Untouched slides are written back byte for byte.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Destination path. Defaults to the path the presentation was opened from.",
					},
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "ppt_update_and_save",
			Description: "One-call repair: remove the given shapes, rewrite the given fonts to the replacement font, and save. The replacement font is validated against the current analysis before anything changes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
					"replacement_font": map[string]interface{}{
						"type":        "string",
						"description": "Font to rewrite the inconsistent fonts to; must be visibly used in the deck",
					},
					"inconsistent_fonts": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Fonts to rewrite, typically inconsistently_used_fonts from ppt_analyze_fonts",
					},
					"locations_to_remove": locationItems(),
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Destination path. Defaults to the path the presentation was opened from.",
					},
				},
				"required": []string{"session_id", "replacement_font"},
			},
		},

		// Embedded Media
		{
			Name:        "ppt_list_media",
			Description: "List the pictures embedded in the presentation with dimensions, dominant-color palette, and brightness. Useful for finding text trapped in images that font analysis cannot see.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "ppt_scan_picture_text",
			Description: "Run OCR over the embedded pictures and report text trapped inside them. Requires Tesseract on the host.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Default \"eng\"",
						"default":     "eng",
					},
					"min_confidence": map[string]interface{}{
						"type":        "number",
						"description": "Drop words below this OCR confidence (0.0-1.0). Default 0.5 when omitted; 0 keeps every word",
						"default":     0.5,
					},
				},
				"required": []string{"session_id"},
			},
		},
	}
}
