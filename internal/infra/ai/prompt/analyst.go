package prompt

// GetSystemPrompt sets the assistant role and the JSON shape the result
// parser reads.
func GetSystemPrompt() string {
	return `You are a medical imaging AI assistant specializing in cancer detection. Analyze medical images and provide:
1. Detected abnormalities or concerning areas
2. Confidence score (0-100)
3. Brief description of findings
4. Risk level: low, moderate, or high
5. Recommendations

IMPORTANT: You are an AI assistant, not a replacement for professional medical diagnosis. Always recommend consulting with healthcare professionals.

Respond in JSON format:
{
  "detectedConditions": ["list of findings"],
  "confidenceScore": 85,
  "riskLevel": "moderate",
  "analysis": "detailed description",
  "recommendations": ["list of recommendations"]
}`
}

// GetUserPrompt is the text part sent alongside the image.
func GetUserPrompt() string {
	return "Please analyze this medical imaging scan for potential cancer indicators or abnormalities."
}

// DataURI embeds a base64 payload for the image_url content part.
func DataURI(mediaType, b64 string) string {
	if mediaType == "" {
		mediaType = "image/jpeg"
	}
	return "data:" + mediaType + ";base64," + b64
}
