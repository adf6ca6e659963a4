// Package definition loads model definitions from YAML files.
//
// A definition file declares models, their attributes and their key-value
// and XML mappings without writing Go code:
//
//	version: "1"
//	namespaces:
//	  - name: ceramic
//	    uri: http://example.com/ceramic
//	    prefix: cer
//	models:
//	  - name: Ceramic
//	    attributes:
//	      - {name: type, type: string}
//	      - {name: firing_temp, type: integer}
//	    xml:
//	      root: ceramic
//	      namespace: ceramic
//	      elements:
//	        - {name: type, to: type}
//	        - {name: temperature, to: firing_temp}
//
// Files are parsed with Parse or LoadFile, checked with Validate and turned
// into registered models with Build.
package definition
