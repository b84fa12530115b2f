// Package recall puts a text interface in front of a memory.Memory. Callers
// supply an EmbedFunc that turns text into a query vector; recall embeds a
// batch, then forwards it to Query (Observe) or Predict (Classify).
//
// A Recall serialises its own calls, so one instance may be shared between
// goroutines. Nothing else should call the wrapped memory concurrently.
package recall
