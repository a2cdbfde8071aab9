// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import "fmt"

const locationResponseSchema = `{
  "type": "object",
  "properties": {
    "location": {
      "type": "string"
    }
  },
  "required": ["location"],
  "additionalProperties": false
}`

const locationPromptTemplate = `Find the geographic location the user is asking about and return it as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- The location is a city, region or country named in the text.
- Use the usual capitalized spelling of the place name.
- Do not include time words such as today, tomorrow or tonight.
- If no location is mentioned, return {"location": ""}. Do not guess.

Example:
Input: "whats the weather in london today"
Output:
{"location":"London"}

Example:
Input: "forecast for new york"
Output:
{"location":"New York"}

Example:
Input: "is it going to rain"
Output:
{"location":""}`

// buildLocationPrompt creates the system prompt with the response schema embedded.
func buildLocationPrompt() string {
	return fmt.Sprintf(locationPromptTemplate, locationResponseSchema)
}
