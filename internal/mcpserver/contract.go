package mcpserver

// WireFormatContract describes the websocket wire format that session
// clients speak. MCP consumers read it before interpreting snapshots or
// building their own client.
const WireFormatContract = `# Laguz Wire Format

A session is joined with a websocket GET to ` + "`" + `/ws/{session}` + "`" + `. Every frame is
a single JSON object with a ` + "`" + `type` + "`" + ` field; unused fields are omitted.

## Coordinate model

- World coordinates are float64 pixels; +X right, +Y down.
- A line has a world-space origin (` + "`" + `x` + "`" + `, ` + "`" + `y` + "`" + `); each glyph carries an offset
  relative to that origin. Glyph world position = line origin + glyph offset.
- New glyphs are placed 12px apart along the direction the writer is steering.
- Moving a line changes only its origin; glyph offsets never change.

## Client to server

` + "```" + `json
{"type":"cursor","cursor":{"x":120,"y":80}}
{"type":"addLine","line":{"id":"...","glyphs":[...],"x":0,"y":0,"ownerId":"...","style":{...}}}
{"type":"updateLine","line":{...}}
{"type":"deleteLines","lineIds":["...","..."]}
{"type":"lines","lines":[...]}
` + "```" + `

` + "`" + `lines` + "`" + ` is the resync message: it carries every line the sender owns, and
the server replaces exactly the sender's lines with it.

## Server to client

` + "```" + `json
{"type":"init","participantId":"...","participant":{...},"room":{"participants":{...},"lines":[...]}}
{"type":"participantJoined","participant":{...}}
{"type":"participantLeft","participantId":"..."}
{"type":"cursor","participantId":"...","cursor":{...}}
{"type":"sync","lines":[...]}
` + "```" + `

` + "`" + `init` + "`" + ` is the first frame after joining and carries the whole room. Mutation
messages (` + "`" + `addLine` + "`" + `, ` + "`" + `updateLine` + "`" + `, ` + "`" + `deleteLines` + "`" + `) are rebroadcast verbatim to
every other participant; the sender never hears its own mutations back.

## Rules

1. **Identity is server-assigned.** The ` + "`" + `participantId` + "`" + ` in ` + "`" + `init` + "`" + ` names you;
   stamp it as ` + "`" + `ownerId` + "`" + ` on every line you create.
2. **Only mutate your own lines.** The server trusts cooperative clients and
   does not police ownership.
3. **Styles are assigned at join** and fixed for the connection's lifetime.
4. **Ids are opaque strings**, unique within a session; UUIDs are a safe choice.
5. **Empty lines do not exist.** Deleting the last glyph deletes the line.
`
