/*
Package gazette turns raw material into a publishable news article through a
fixed four-stage pipeline, keeping a full audit trail of every decision.

# Stages

Every document passes, strictly in order, through:

  - Alpha: a structured draft with key points and an information hierarchy.
  - Beta: the draft rewritten in the target house style and tone.
  - Gamma: headline candidates and a recommendation.
  - Delta: the final article with a quality report.

After each attempt a decision source (a terminal, a JSON stream, a script or
nobody at all) accepts the output, asks for a retry or quits. Parse failures
and retries share one ceiling of MaxRetries+1 attempts per stage; once it is
reached the latest output is finalized.

# Audit

Every event is recorded on the session and exported as one LogRow per
document, whether it succeeded or not. Rows go to a ports.RowSink (CSV,
sqlite, ...), the full event list to a ports.DetailSink.

# Usage

	backend := ollama.New("http://localhost:11434")
	sink, err := csv.Open("pipeline_log.csv")
	if err != nil {
		log.Fatal(err)
	}
	defer sink.Close()

	p, err := gazette.New(backend, gazette.WithRowSink(sink))
	if err != nil {
		log.Fatal(err)
	}

	params := domain.DefaultParameters()
	params.NonInteractive = true
	res, err := p.Execute(ctx, domain.Document{Text: raw}, params)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Outcome.Headline)
*/
package gazette
