// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

// GetExampleRichSchemaResponse returns a worked example of the "rich"
// Analyzer JSON schema (Subject/Location/ShotType/TimeStamp/Outcome).
// The analyzer's prompt does not include it; the prompt uses the compact
// example below.
func GetExampleRichSchemaResponse() string {
	return `[
  {
    "Subject": "Player in the white jersey, number 23",
    "Location": "Top of the key",
    "ShotType": "Jumpshot",
    "TimeStamp": "00:01:12",
    "Outcome": "Make"
  },
  {
    "Subject": "Player in the black jersey, number 7",
    "Location": "Left wing",
    "ShotType": "Layup",
    "TimeStamp": "00:02:45",
    "Outcome": "Miss"
  }
]`
}

// GetExampleCompactSchemaResponse returns a worked example of the
// compact Analyzer JSON schema (SR/SL/ST/TS/MM), restricted to players
// actively participating in the game.
func GetExampleCompactSchemaResponse() string {
	return `[
  {
    "SR": "Player in the white jersey, number 23",
    "SL": "Top of the key",
    "ST": "Jumpshot",
    "TS": "00:01:12",
    "MM": "Make"
  },
  {
    "SR": "Player in the black jersey, number 7",
    "SL": "Left wing",
    "ST": "Layup",
    "TS": "00:02:45",
    "MM": "Miss"
  }
]`
}
