// Package harness replays journal scenarios through the engine and checks
// what came out.
//
// A scenario is a short journal written in YAML plus assertions on the
// notices it produces and the state it leaves behind. Scenarios run
// synchronously through a fresh engine and session runner, so the same file
// always yields the same notices, sequence numbers and timestamps.
//
// # Scenario Format
//
//	name: arrival
//	description: "Commander loads in and jumps"
//	thresholds:
//	  planet_value: 1000000
//	journal:
//	  - event: Commander
//	    fields: { Name: Jameson }
//	  - raw: "{not json"
//	  - event: FSDJump
//	    fields: { StarSystem: Lave, SystemAddress: 1, JumpDist: 12.5 }
//	assertions:
//	  - type: notice_contains
//	    text: "Arrived: Lave"
//	  - type: final_state
//	    expect: { system.name: Lave }
//
// Event steps without a "timestamp" field are stamped one second apart
// starting at testutil.Epoch. Raw steps are fed to the decoder verbatim and
// do not consume a timestamp.
//
// # Assertion Types
//
//   - notice_contains: some notice contains text
//   - notice_absent: no notice contains text
//   - notice_order: each of texts matches a notice, in that order
//   - notice_count: exactly count notices contain text
//   - final_state: dotted JSON paths of the final state equal the values
//   - faults: exactly count handler faults occurred
//
// # Golden Traces
//
// RunWithGolden writes the notice trace as indented JSON and compares it
// with testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
