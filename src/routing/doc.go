/*
Package routing defines the primitive identifiers of the network's address
space: XorName, Prefix, PublicKey, and MessageID. They are shared by every
other package and carry no behavior beyond derivation and comparison; actual
message delivery belongs to the network collaborator.
*/
package routing
