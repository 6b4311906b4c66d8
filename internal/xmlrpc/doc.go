// Package xmlrpc implements the default wire codec collaborators for the
// client: a Serializer turning a method name and parameter sequence into an
// XML-RPC methodCall body, and a Deserializer turning a streamed
// methodResponse body into a result value or fault. Both support non-UTF-8
// charsets via IANA encoding names.
package xmlrpc
