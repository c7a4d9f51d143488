// Package toolbus is the messaging layer between an orchestrator and the
// runtimes that execute tools on its behalf. It defines typed message
// envelopes, a subject grammar on top of NATS, and a transport client for
// publish, request/reply and subscriptions.
//
// # Envelopes
//
// Every message kind is a Definition[P] with a wire tag, a class (Publish,
// Request or Response), a payload validator and, for non-response kinds, a
// rule that derives the subject from the payload. Create validates the
// payload and assigns a ULID message id, so an invalid payload never reaches
// the network. On the wire an envelope is a single JSON object carrying the
// payload fields plus "type" and an optional "subject".
//
// A Registry maps wire tags back to kinds. Decoding an unknown or missing tag
// yields UnknownTypeError; bytes that are not a JSON object yield
// MalformedMessageError.
//
// # Subjects
//
// Subjects are dot separated tokens:
//
//	handshake                                   runtime announcement (request)
//	{tenant}.call-tool.{toolId}.{route}         tool call (request)
//	{tenant}.call-skill.{skillId}.{route}       skill call (request)
//	{tenant}.{runtimeId}.{servers|tools|...}    discovery broadcast (publish)
//	runtime.{started|stopped|reconnect}.{server}.{session}
//
// The route is the pinned runtime id when set and the caller id otherwise.
// Patterns use the NATS wildcards "*" (one token) and ">" (trailing tokens);
// MatchSubject evaluates them without a broker.
//
// # Client
//
// Client shares one broker connection between all callers. Request sends on
// a private inbox and waits for one Response within the timeout; with retry
// on timeout enabled it makes exactly one more attempt. A reply that is not
// a Response kind is a ProtocolViolationError. Subscribe returns a
// Subscription that yields decoded envelopes and skips undecodable ones;
// Unsubscribe drops anything buffered while Drain delivers it first. Serve
// answers requests from a subscription with bounded concurrency and turns
// handler errors into error-response envelopes.
//
// Connections reconnect forever with a fixed backoff. A memory broker with
// the same subject semantics backs tests and single process deployments,
// and PublishDurable can additionally hand envelopes to a watermill stream
// sink (NATS JetStream, Kafka, RabbitMQ or Go channels).
//
// # Configuration
//
// Config is read from the environment (NATS_SERVERS, NATS_NAME,
// TOOLBUS_REQUEST_TIMEOUT, TOOLBUS_RETRY_ON_TIMEOUT, ...). Runtime
// credentials come from WORKSPACE_KEY, SKILL_KEY and SKILL_NAME.
package toolbus
