/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package srv

// apiSpec is the swagger document served at /swagger.json. It is
// loaded through go-openapi at startup, so a malformed document fails
// the server instead of its clients.
const apiSpec = `{
  "swagger": "2.0",
  "info": {
    "title": "libdc API",
    "description": "RESTful APIs to inspect stored dives and trigger downloads",
    "version": "1.0.0"
  },
  "basePath": "/api",
  "consumes": ["application/json"],
  "produces": ["application/json"],
  "paths": {
    "/devices": {
      "get": {
        "operationId": "listDevices",
        "summary": "Return the configured devices",
        "responses": {
          "200": {"description": "The configured devices"}
        }
      }
    },
    "/dives/{device}": {
      "get": {
        "operationId": "listDives",
        "summary": "Return the summaries of all stored dives of a device",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"}
        ],
        "responses": {
          "200": {"description": "The dive summaries"},
          "404": {"description": "Unknown device"}
        }
      }
    },
    "/dives/{device}/{number}": {
      "get": {
        "operationId": "getDive",
        "summary": "Return one decoded dive",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "number", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {
          "200": {"description": "The decoded dive"},
          "404": {"description": "Unknown device or dive"}
        }
      }
    },
    "/dives/{device}/{number}/samples": {
      "get": {
        "operationId": "getSamples",
        "summary": "Return the decoded sample stream of one dive",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "number", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {
          "200": {"description": "The decoded samples"},
          "404": {"description": "Unknown device or dive"}
        }
      }
    },
    "/download/{device}": {
      "post": {
        "operationId": "triggerDownload",
        "summary": "Download the new dives of a device into the store",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"}
        ],
        "responses": {
          "200": {"description": "The number of stored dives"},
          "502": {"description": "The download failed"}
        }
      }
    }
  }
}`
